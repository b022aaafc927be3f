package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tasksync/cmd/api/commands"
)

// @title TaskSync API
// @version 1.0
// @description Collaborative day-scoped task tracking with guests, share links and a live push channel.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:          "tasksync",
		Short:        "TaskSync API Server",
		Long:         `TaskSync tracks tasks per calendar day and pushes every change to connected clients as it happens.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		commands.NewServeCommand(),
		commands.NewMigrateCommand(),
		commands.NewUserCommand(),
		commands.NewLogsCommand(),
		commands.NewVersionCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
