package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// UserCommands provides account management commands
type UserCommands struct {
	base *BaseCommand
}

// NewUserCommands creates new account management commands
func NewUserCommands(base *BaseCommand) *UserCommands {
	return &UserCommands{base: base}
}

// RegisterCommands registers all account commands
func (u *UserCommands) RegisterCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(u.createSetRoleCommand())
	rootCmd.AddCommand(u.createShowAccountCommand())
}

func (u *UserCommands) createSetRoleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <phone> <USER|ADMIN|AUTHOR>",
		Short: "Set the role of an account",
		Long: `Set the role of an existing account.

Examples:
  furniture-admin set-role 0241234567 ADMIN
  furniture-admin set-role 0241234567 USER --yes`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			phone, role := args[0], strings.ToUpper(args[1])

			u.base.PrintHeader("Set Role")
			if !u.base.Confirm(fmt.Sprintf("Set role of %s to %s?", phone, role)) {
				u.base.PrintInfo("Cancelled")
				return nil
			}

			service, err := u.base.AuthService(cmd.Context())
			if err != nil {
				return err
			}

			account, err := service.PromoteAccount(cmd.Context(), phone, role)
			if err != nil {
				return fmt.Errorf("failed to set role: %w", err)
			}

			u.base.PrintSuccess(fmt.Sprintf("Account %s is now %s", account.Phone, account.Role))
			return nil
		},
	}
}

func (u *UserCommands) createShowAccountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show-account <id>",
		Short: "Show an account by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := u.base.AuthService(cmd.Context())
			if err != nil {
				return err
			}

			account, err := service.GetAccount(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load account: %w", err)
			}

			u.base.PrintHeader("Account")
			fmt.Fprintf(u.base.out, "ID:       %s\n", account.ID)
			fmt.Fprintf(u.base.out, "Phone:    %s\n", account.Phone)
			fmt.Fprintf(u.base.out, "Role:     %s\n", account.Role)
			fmt.Fprintf(u.base.out, "Status:   %s\n", account.Status)
			fmt.Fprintf(u.base.out, "Created:  %s\n", account.CreatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
