package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/consolecache/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.NewRootCommand(nil).ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cachectl:", err)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
