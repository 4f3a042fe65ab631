package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"shelfwatch/internal/client"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var emailFlag string
	var passwordFlag string

	cmd := &cobra.Command{
		Use:   "login [email]",
		Short: "Authenticate with the daemon and persist the session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.TrimSpace(emailFlag)
			if email == "" && len(args) > 0 {
				email = strings.TrimSpace(args[0])
			}
			if email == "" {
				value, err := promptLine(cmd, "Email: ")
				if err != nil {
					return err
				}
				email = value
			}
			if email == "" {
				return errors.New("email is required")
			}

			password := passwordFlag
			if password == "" {
				value, err := promptPassword(cmd, "Password: ")
				if err != nil {
					return err
				}
				password = value
			}
			if password == "" {
				return errors.New("password is required")
			}

			return ctx.withClient(func(runCtx context.Context, api *client.Client) error {
				user, err := api.Login(runCtx, email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&emailFlag, "email", "", "Account email")
	cmd.Flags().StringVar(&passwordFlag, "password", "", "Account password (prompted when omitted)")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(runCtx context.Context, api *client.Client) error {
				api.Logout(runCtx)
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(runCtx context.Context, api *client.Client) error {
				user, ok := api.CheckAuth(runCtx)
				if !ok {
					return client.ErrUnauthenticated
				}
				fmt.Fprintln(cmd.OutOrStdout(), user.Email)
				return nil
			})
		},
	}
}

func promptLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo on a terminal and falls back to a
// plain line read when stdin is piped.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	stdin, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(stdin.Fd())) {
		return promptLine(cmd, prompt)
	}
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	raw, err := term.ReadPassword(int(stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
