package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"feedsync/internal/app"
	"feedsync/internal/infra/push"
	"feedsync/internal/infra/telemetry"
)

type cliOptions struct {
	configPath     string
	apiURL         string
	pushURL        string
	sessionBackend string
	tokenFile      string
	logLevel       string
	jsonOutput     bool
	yamlOutput     bool
	logger         *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{
		configPath: app.DefaultConfigPath(),
		logLevel:   "warn",
		logger:     zap.NewNop(),
	}

	root := &cobra.Command{
		Use:           "feedsync",
		Short:         "Real-time notification feed client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			applyRootFlagBindings(cmd, &opts)
			if opts.jsonOutput && opts.yamlOutput {
				return exitError{code: exitUsage, message: "--json and --yaml are mutually exclusive"}
			}
			logger, err := app.BuildLogger(opts.logLevel)
			if err != nil {
				return exitError{code: exitUsage, message: err.Error()}
			}
			opts.logger = logger.With(zap.String(telemetry.FieldLogSource, telemetry.LogSourceCLI))
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", opts.configPath, "path to the config file")
	root.PersistentFlags().StringVar(&opts.apiURL, "api", "", "notification API base URL (overrides api.baseURL)")
	root.PersistentFlags().StringVar(&opts.pushURL, "push-url", "", "push endpoint URL (overrides push.url)")
	root.PersistentFlags().StringVar(&opts.sessionBackend, "session-backend", "", "session backend: memory, file or keyring")
	root.PersistentFlags().StringVar(&opts.tokenFile, "token-file", "", "token file for the file session backend")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")
	root.PersistentFlags().BoolVar(&opts.yamlOutput, "yaml", false, "output YAML")

	root.AddCommand(
		newWatchCmd(&opts),
		newListCmd(&opts),
		newCountCmd(&opts),
		newReadCmd(&opts),
		newReadAllCmd(&opts),
		newLoginCmd(&opts),
		newLogoutCmd(&opts),
		newConfigCmd(&opts),
		newVersionCmd(&opts),
	)

	return root
}

func applyRootFlagBindings(cmd *cobra.Command, opts *cliOptions) {
	flags := cmd.Flags()
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "config":
			opts.configPath, _ = flags.GetString("config")
		case "api":
			opts.apiURL, _ = flags.GetString("api")
		case "push-url":
			opts.pushURL, _ = flags.GetString("push-url")
		case "session-backend":
			opts.sessionBackend, _ = flags.GetString("session-backend")
		case "token-file":
			opts.tokenFile, _ = flags.GetString("token-file")
		case "log-level":
			opts.logLevel, _ = flags.GetString("log-level")
		case "json":
			opts.jsonOutput, _ = flags.GetBool("json")
		case "yaml":
			opts.yamlOutput, _ = flags.GetBool("yaml")
		}
	})
}

// loadConfig reads the config file when present and applies flag overrides.
func loadConfig(opts *cliOptions) (app.Config, error) {
	path := opts.configPath
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && path == app.DefaultConfigPath() {
			path = ""
		}
	}
	cfg, err := app.LoadConfig(path)
	if err != nil {
		return app.Config{}, err
	}

	if opts.apiURL != "" {
		derived := cfg.Push.URL == push.EndpointFromAPI(cfg.API.BaseURL)
		cfg.API.BaseURL = opts.apiURL
		if derived {
			cfg.Push.URL = push.EndpointFromAPI(opts.apiURL)
		}
	}
	if opts.pushURL != "" {
		cfg.Push.URL = opts.pushURL
	}
	if opts.sessionBackend != "" {
		cfg.Session.Backend = opts.sessionBackend
	}
	if opts.tokenFile != "" {
		cfg.Session.TokenFile = opts.tokenFile
	}
	return cfg, nil
}

// withApplication builds the dependency graph for one command run.
func withApplication(ctx context.Context, opts *cliOptions, cfg app.Config, fn func(*app.Application) error) error {
	application, cleanup, err := app.InitializeApplication(ctx, cfg, app.LoggingConfig{Logger: opts.logger})
	if err != nil {
		return exitFor(err)
	}
	defer cleanup()
	return exitFor(fn(application))
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
