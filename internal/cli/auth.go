// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/applianceai-tui/internal/store"
)

// =============================================================================
// LOGIN
// =============================================================================

func newLoginCmd(o *rootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in with your email and password. The password is read without
echo when stdin is a terminal, or as one line when it is piped.`,
		Example: `  applianceai login
  applianceai login --email you@example.com
  printf 'secret\n' | applianceai login --email you@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			pr := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			if strings.TrimSpace(email) == "" {
				if email, err = pr.line("Email: "); err != nil {
					return err
				}
			}
			password, err := pr.secret("Password: ")
			if err != nil {
				return err
			}

			if err := a.store.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			st := a.store.Snapshot()
			if st.Auth.Error != "" {
				return errors.New(st.Auth.Error)
			}

			p := newPalette(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), p.Success.Render("Logged in as "+st.Auth.User.DisplayName()))
			if a.cfg.Storage.Ephemeral {
				fmt.Fprintln(cmd.OutOrStdout(), p.Warning.Render("Storage is ephemeral; the session ends with this command."))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
	return cmd
}

// =============================================================================
// SIGNUP
// =============================================================================

func newSignupCmd(o *rootOptions) *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			pr := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			if strings.TrimSpace(username) == "" {
				if username, err = pr.line("Username: "); err != nil {
					return err
				}
			}
			if strings.TrimSpace(email) == "" {
				if email, err = pr.line("Email: "); err != nil {
					return err
				}
			}
			password, err := pr.secret("Password: ")
			if err != nil {
				return err
			}
			confirm, err := pr.secret("Confirm password: ")
			if err != nil {
				return err
			}

			switch err := a.store.Signup(cmd.Context(), username, email, password, confirm); {
			case errors.Is(err, store.ErrPasswordMismatch):
				return errors.New("passwords do not match")
			case errors.Is(err, store.ErrMissingCredentials):
				return errors.New("username, email and password are required")
			case err != nil:
				return err
			}
			if msg := a.store.Snapshot().Auth.Error; msg != "" {
				return errors.New(msg)
			}

			p := newPalette(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), p.Success.Render("Account created."))
			fmt.Fprintln(cmd.OutOrStdout(), p.Dim.Render("Run 'applianceai login' to sign in."))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted when empty)")
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
	return cmd
}

// =============================================================================
// LOGOUT
// =============================================================================

func newLogoutCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			a.store.Hydrate(cmd.Context())
			wasIn := a.store.Snapshot().Auth.IsAuthenticated
			a.store.Logout(cmd.Context())

			p := newPalette(cmd.OutOrStdout())
			if !wasIn {
				fmt.Fprintln(cmd.OutOrStdout(), p.Dim.Render("Not logged in."))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.Success.Render("Logged out."))
			return nil
		},
	}
}
