package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartretail/storefront/internal/core/domain"
)

func (rt *runtime) loginCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := rt.app.Session.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return printJSON(cmd, user)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (rt *runtime) registerCommand() *cobra.Command {
	var reg domain.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in with it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := rt.app.Session.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			return printJSON(cmd, user)
		},
	}
	cmd.Flags().StringVar(&reg.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&reg.LastName, "last-name", "", "last name (optional)")
	cmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "account password")
	return cmd
}

func (rt *runtime) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			return printJSON(cmd, rt.app.Session.Current())
		},
	}
}

func (rt *runtime) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd, rt.app.Session.Current())
		},
	}
}

func (rt *runtime) usersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts (admin)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := rt.app.Auth.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, users)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "role ID ROLE",
		Short: "Change a user's role to admin or customer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0)
			if err != nil {
				return err
			}
			res, err := rt.app.Auth.UpdateRole(cmd.Context(), id, domain.Role(args[1]))
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "deactivate ID",
		Short: "Deactivate a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0)
			if err != nil {
				return err
			}
			res, err := rt.app.Auth.DeactivateUser(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0)
			if err != nil {
				return err
			}
			res, err := rt.app.Auth.DeleteUser(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	})

	return cmd
}

// requireSession fails fast for commands that only make sense signed in.
func (rt *runtime) requireSession() error {
	if !rt.app.Session.Current().Authenticated() {
		return fmt.Errorf("%w: run storefront login first", domain.ErrNotAuthenticated)
	}
	return nil
}
