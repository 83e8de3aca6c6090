package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/taqiudeen275/furniture-auth/cmd/admin/commands"
)

var rootCmd = &cobra.Command{
	Use:   "furniture-admin",
	Short: "Furniture auth admin CLI",
	Long: `Administrative command line interface for the furniture auth service.

This CLI provides tools for:
- Setting account roles
- Switching maintenance mode

Production environments require an explicit confirmation for every change.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().String("config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose output")
	rootCmd.PersistentFlags().Bool("yes", false, "answer yes to all prompts (use with caution)")

	base := commands.NewBase(os.Stdin)
	rootCmd.PersistentPreRunE = base.Initialize
	rootCmd.PersistentPostRun = func(*cobra.Command, []string) { base.Close() }

	commands.NewUserCommands(base).RegisterCommands(rootCmd)
	commands.NewSystemCommands(base).RegisterCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		commands.ColorError.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}
