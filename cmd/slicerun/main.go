// slicerun — проводит топологию Slicer через жизненный цикл:
// create → reserve → deploy → undeploy → unreserve → delete.
//
// Использование:
//
//	slicerun [--system NAME] [--owner EMAIL] [--spec FILE] <command> [flags]
//
// Команды:
//
//	up        Полный жизненный цикл (exit 1 при ошибке setup)
//	teardown  Только cleanup: undeploy, unreserve, delete
//	validate  Проверить описание топологии
//	schedule  Запускать up по cron-расписанию
//	history   История run из Postgres
//	events    События lifecycle из RabbitMQ
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/slicerun/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := cli.NewRootCmd(version, os.Stdout, os.Stderr)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err == nil {
		return
	}

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
