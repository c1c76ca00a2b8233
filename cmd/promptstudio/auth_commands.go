package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/jrsteele09/promptstudio/apiclient"
	"github.com/spf13/cobra"
)

func newLoginCommand(appFn func() *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if email, err = readValue(cmd, in, email, "Email"); err != nil {
				return err
			}
			if password, err = readValue(cmd, in, password, "Password"); err != nil {
				return err
			}

			req := apiclient.LoginRequest{Email: strings.TrimSpace(email), Password: password}
			if err := req.Validate(); err != nil {
				return err
			}
			a := appFn()
			if _, err := a.session.Login(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", displayName(a))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	return cmd
}

func newRegisterCommand(appFn func() *app) *cobra.Command {
	var email, username, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if email, err = readValue(cmd, in, email, "Email"); err != nil {
				return err
			}
			if username, err = readValue(cmd, in, username, "Username"); err != nil {
				return err
			}
			if password, err = readValue(cmd, in, password, "Password"); err != nil {
				return err
			}

			req := apiclient.RegisterRequest{Email: strings.TrimSpace(email), Username: strings.TrimSpace(username), Password: password}
			if err := req.Validate(); err != nil {
				return err
			}
			if _, err := appFn().session.Register(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account created. Run `promptstudio login` to sign in.")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&username, "username", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	return cmd
}

func newLogoutCommand(appFn func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appFn().session.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newWhoamiCommand(appFn func() *app) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFn()
			if err := a.requireSession(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if remote {
				u, err := a.client.CurrentUser(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Username: %s\nEmail:    %s\nID:       %s\n", u.Username, u.Email, u.ID)
				return nil
			}

			user, err := a.session.User()
			if err != nil {
				fmt.Fprintln(out, "Signed in (no identity in the stored token).")
				return nil
			}
			fmt.Fprintf(out, "Username: %s\nEmail:    %s\nID:       %s\n", user.Username, user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "ask the server instead of reading the stored token")
	return cmd
}

// displayName is the username, else the email, else "User".
func displayName(a *app) string {
	user, err := a.session.User()
	switch {
	case err != nil:
		return "User"
	case user.Username != "":
		return user.Username
	case user.Email != "":
		return user.Email
	default:
		return "User"
	}
}
