package main

import (
	"context"
	"fmt"
	"os"

	"libcirc/cmd/bootstrap"
	"libcirc/internal/handler/cli"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func main() {
	var root *cobra.Command
	app := fx.New(
		bootstrap.Module,
		fx.Provide(cli.NewRootCommand),
		fx.Populate(&root),
		fx.NopLogger,
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}

	runErr := root.Execute()

	if err := app.Stop(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown failed: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
