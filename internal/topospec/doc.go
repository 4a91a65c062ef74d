// Package topospec загружает описание топологии Slicer из YAML.
//
// Файл содержит две обязательные секции:
//
//	topology_spec:   # определение топологии, передаётся в create
//	  use_ovs: true
//	  duts:
//	    duts:
//	      - spine1: {os_type: junos, impl_type: vjunos}
//	deploy_spec:     # спецификация развёртывания, передаётся в deploy
//	  apstra:
//	    branch: master
//	    build: latest
//
// Содержимое секций непрозрачно: пакет проверяет только, что обе секции
// присутствуют и являются mapping. Summary извлекает несколько известных
// полей для вывода пользователю.
package topospec
