package main

import (
	"errors"
	"fmt"

	"github.com/etitcombe/todopom/db"

	"github.com/spf13/cobra"
)

func newRegisterCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "register NAME PASSWORD",
		Short: "Create a new account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.registry.Register(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s registered! Please log in.\n", u.Name)
			return nil
		},
	}
}

func newLoginCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login NAME PASSWORD",
		Short: "Log in and remember the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.registry.Login(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome %s!\n", s.Name)
			return nil
		},
	}
}

func newLogoutCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.registry.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out successfully")
			return nil
		},
	}
}

func newPasswdCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd OLD NEW CONFIRM",
		Short: "Change the password of the logged-in user",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			if err := a.registry.ChangePassword(s.Name, args[0], args[1], args[2]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password changed")
			return nil
		},
	}
}

func newWhoamiCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			role := "user"
			if s.IsAdmin {
				role = "admin"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", s.Name, role)
			return nil
		},
	}
}

func newDashboardCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show every user's tasks (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			if !s.IsAdmin {
				return errors.New("the dashboard is for admins only")
			}
			dashboard, err := a.registry.Dashboard()
			if err != nil {
				return err
			}
			db.WriteDashboard(cmd.OutOrStdout(), dashboard)
			return nil
		},
	}
}
