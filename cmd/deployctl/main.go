package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/integrations-hub/integrations/internal/adapter/driving/cli"
	"github.com/integrations-hub/integrations/internal/application"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCmd(cli.DefaultDeps()).ExecuteContext(ctx)
	stop()

	if err != nil && !errors.Is(err, application.ErrCancelled) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.ExitCode(err))
}
