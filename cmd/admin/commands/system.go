package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// SystemCommands provides maintenance commands
type SystemCommands struct {
	base *BaseCommand
}

// NewSystemCommands creates new system commands
func NewSystemCommands(base *BaseCommand) *SystemCommands {
	return &SystemCommands{base: base}
}

// RegisterCommands registers all system commands
func (s *SystemCommands) RegisterCommands(rootCmd *cobra.Command) {
	maintenance := &cobra.Command{
		Use:   "maintenance",
		Short: "Inspect or switch maintenance mode",
	}
	maintenance.AddCommand(
		s.createMaintenanceSwitch("on", true),
		s.createMaintenanceSwitch("off", false),
		s.createMaintenanceStatus(),
	)
	rootCmd.AddCommand(maintenance)
}

func (s *SystemCommands) createMaintenanceSwitch(use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Turn maintenance mode %s", use),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !s.base.Confirm(fmt.Sprintf("Turn maintenance mode %s?", use)) {
				s.base.PrintInfo("Cancelled")
				return nil
			}

			store, err := s.base.Settings(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.SetMaintenance(cmd.Context(), enabled); err != nil {
				return err
			}

			s.base.PrintSuccess(fmt.Sprintf("Maintenance mode %s", use))
			return nil
		},
	}
}

func (s *SystemCommands) createMaintenanceStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether maintenance mode is on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := s.base.Settings(cmd.Context())
			if err != nil {
				return err
			}
			enabled, err := store.Maintenance(cmd.Context())
			if err != nil {
				return err
			}

			if enabled {
				s.base.PrintWarning("Maintenance mode is on")
			} else {
				s.base.PrintInfo("Maintenance mode is off")
			}
			return nil
		},
	}
}
