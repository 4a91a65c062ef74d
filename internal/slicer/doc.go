// Package slicer — HTTP-клиент сервиса Slicer.
//
// Client выполняет операции над SysTest:
//
//	create    POST   /api/v1/systests
//	reserve   POST   /api/v1/systests/{name}/reservation
//	unreserve DELETE /api/v1/systests/{name}/reservation
//	deploy    POST   /api/v1/systests/{name}/deployment
//	undeploy  DELETE /api/v1/systests/{name}/deployment
//	delete    DELETE /api/v1/systests/{name}
//
// Ответы завёрнуты в {"data": ...}, ошибки — в {"error": {"code", "message"}}.
//
// Deploy и undeploy с wait=true опрашивают GET .../deployment каждые
// PollInterval, пока статус не станет терминальным или не истечёт timeout.
// Клиент не делает retry: каждый вызов выполняется ровно один раз.
package slicer
