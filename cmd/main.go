package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SamuelLeutner/fetch-canvas-grades/report"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "canvas-grades",
		Short:         "Prepare Canvas course grades for submission",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPrepareGradesCmd(), newShowCoursesCmd(), newServeCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		report.New(os.Stderr).Error(err)
		stop()
		os.Exit(1)
	}
}
