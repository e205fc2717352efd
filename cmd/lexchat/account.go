package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/legal-assistant/internal/api"
	"github.com/suPer8Hu/legal-assistant/internal/auth"
	"github.com/suPer8Hu/legal-assistant/internal/credstore"
)

// promptMissing asks on stdin for any empty value.
func (a *app) promptMissing(email, password *string) error {
	var err error
	if strings.TrimSpace(*email) == "" {
		if *email, err = a.readLine("email: "); err != nil {
			return err
		}
	}
	if *password == "" {
		if *password, err = a.readLine("password: "); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) saveSession(ctx context.Context, s *api.Session) error {
	creds, err := a.credentials()
	if err != nil {
		return err
	}
	return creds.Save(ctx, &credstore.Credential{
		Server:   a.cfg.APIBaseURL,
		Token:    s.Token,
		UserID:   s.User.ID,
		Email:    s.User.Email,
		Username: s.User.Username,
	})
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the token for this API URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.promptMissing(&email, &password); err != nil {
				return err
			}
			c, err := a.apiClient(false)
			if err != nil {
				return err
			}
			s, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return explain(err)
			}
			if err := a.saveSession(cmd.Context(), s); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "signed in as %s (%s)\n", s.User.Email, s.User.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.promptMissing(&email, &password); err != nil {
				return err
			}
			c, err := a.apiClient(false)
			if err != nil {
				return err
			}
			s, err := c.Register(cmd.Context(), api.RegisterRequest{Email: email, Password: password, Name: name})
			if err != nil {
				return err
			}
			if err := a.saveSession(cmd.Context(), s); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "registered %s (%s)\n", s.User.Email, s.User.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token for this API URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := a.credentials()
			if err != nil {
				return err
			}
			if err := creds.Delete(cmd.Context(), a.cfg.APIBaseURL); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(true)
			if err != nil {
				return err
			}
			p, err := c.Profile(cmd.Context())
			if err != nil {
				if errors.Is(err, auth.ErrNoToken) {
					fmt.Fprintln(a.out, "not signed in")
					return nil
				}
				return explain(err)
			}
			fmt.Fprintf(a.out, "%s\t%s\t%s\n", p.ID, p.Email, p.Username)
			return nil
		},
	}
}
