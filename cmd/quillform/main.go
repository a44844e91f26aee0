package main

import (
	"os"

	"github.com/spf13/cobra"

	"quillform/internal/interfaces/cli/admin"
	"quillform/internal/interfaces/cli/billing"
	"quillform/internal/interfaces/cli/migrate"
	"quillform/internal/interfaces/cli/retention"
	"quillform/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "quillform",
		Short: "QuillForm - multi-tenant survey platform",
		Long:  `QuillForm serves the survey API and runs the subscription and data-retention maintenance tooling.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		billing.NewCommand(),
		retention.NewCommand(),
		admin.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
