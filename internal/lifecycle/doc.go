// Package lifecycle проводит топологию Slicer через жизненный цикл.
//
// Orchestrator выполняет шаги строго последовательно:
//
//	load → create → reserve → deploy → undeploy → unreserve → delete
//
// Первые четыре шага — fail-fast префикс: любая ошибка прерывает run
// с *FatalError, и никакие последующие шаги (включая cleanup) не выполняются.
// Ресурсы, уже созданные на стороне Slicer, остаются для ручной очистки
// (см. Orchestrator.Teardown).
//
// Последние три шага — best-effort суффикс: каждый выполняется независимо
// от результата предыдущего. Ошибка превращается в *RecoverableError,
// логируется как предупреждение и не влияет на исход run.
//
// Каждый вызов Slicer выполняется не более одного раза за run, без retry.
//
// Использование:
//
//	orch := lifecycle.New(lifecycle.Config{
//	    SystemName: "github_runner",
//	    Owner:      "github@apstra.com",
//	    SpecPath:   topospec.DefaultPath(),
//	    Loader:     topospec.Loader{},
//	    Client:     slicer.NewClient(slicer.Config{BaseURL: url}),
//	    Observers:  []lifecycle.Observer{progress, metrics},
//	    Logger:     logger,
//	})
//
//	result, err := orch.Run(ctx)
//	os.Exit(result.ExitCode())
package lifecycle
