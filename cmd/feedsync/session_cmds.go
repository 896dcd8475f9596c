package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"feedsync/internal/app"
)

func newLoginCmd(opts *cliOptions) *cobra.Command {
	var token string
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fromStdin {
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil && line == "" {
					return exitError{code: exitUsage, message: "no token on stdin"}
				}
				token = line
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return exitError{code: exitUsage, message: "--token or --stdin is required"}
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return exitFor(err)
			}
			return withApplication(cmd.Context(), opts, cfg, func(a *app.Application) error {
				if err := a.Tokens().Login(token); err != nil {
					return err
				}
				if err := a.Tokens().Valid(); err != nil {
					fmt.Fprintf(os.Stderr, "warning: %v\n", err)
				}
				fmt.Fprintf(stdout, "logged in (backend=%s)\n", cfg.Session.Backend)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "session token")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the token from stdin")
	return cmd
}

func newLogoutCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return exitFor(err)
			}
			return withApplication(cmd.Context(), opts, cfg, func(a *app.Application) error {
				if err := a.Tokens().Logout(); err != nil {
					return err
				}
				fmt.Fprintln(stdout, "logged out")
				return nil
			})
		},
	}
}

func newConfigCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}

	var overwrite bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default settings",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if opts.configPath == "" {
				return exitError{code: exitUsage, message: "--config is required"}
			}
			if err := app.WriteDefaultConfig(opts.configPath, overwrite); err != nil {
				return exitError{code: exitFailure, message: err.Error()}
			}
			fmt.Fprintf(stdout, "wrote %s\n", opts.configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return exitFor(err)
			}
			view := map[string]any{
				"api":           map[string]any{"baseURL": cfg.API.BaseURL, "timeout": cfg.API.Timeout.String()},
				"push":          map[string]any{"url": cfg.Push.URL, "heartbeat": cfg.Push.Heartbeat.String(), "reconnectDelay": cfg.Push.ReconnectDelay.String(), "reconnectMaxDelay": cfg.Push.ReconnectMaxDelay.String()},
				"session":       map[string]any{"backend": cfg.Session.Backend, "tokenFile": cfg.Session.TokenFile},
				"alert":         map[string]any{"enabled": cfg.Alert.Enabled},
				"observability": map[string]any{"enabled": cfg.Observability.Enabled, "listenAddress": cfg.Observability.ListenAddress},
				"feed":          map[string]any{"pageSize": cfg.Feed.PageSize},
			}
			if opts.jsonOutput {
				return writeJSON(view)
			}
			return writeYAML(view)
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func newVersionCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if opts.jsonOutput {
				return writeJSON(map[string]string{"version": app.Version, "build": app.Build})
			}
			fmt.Fprintf(stdout, "feedsync %s (%s)\n", app.Version, app.Build)
			return nil
		},
	}
}
