package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"feedsync/internal/alert"
	"feedsync/internal/app"
	"feedsync/internal/domain"
)

var errQuit = errors.New("quit requested")

type watchOptions struct {
	sound       bool
	metrics     bool
	metricsAddr string
	interactive bool
}

func newWatchCmd(opts *cliOptions) *cobra.Command {
	var wopts watchOptions
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the feed synchronized and print changes as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return exitFor(err)
			}
			applyWatchFlagBindings(cmd.Flags(), &wopts, &cfg)

			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			return withApplication(ctx, opts, cfg, func(a *app.Application) error {
				return runWatch(ctx, cancel, opts, wopts, a)
			})
		},
	}
	cmd.Flags().BoolVar(&wopts.sound, "sound", domain.DefaultAlertEnabled, "ring the terminal bell on new notifications")
	cmd.Flags().BoolVar(&wopts.metrics, "metrics", false, "serve /metrics and /healthz")
	cmd.Flags().StringVar(&wopts.metricsAddr, "metrics-addr", domain.DefaultObservabilityListenAddress, "listen address for /metrics and /healthz")
	cmd.Flags().BoolVar(&wopts.interactive, "interactive", false, "read commands from stdin (s: toggle sound, m: mark all read, r: refresh, q: quit)")
	return cmd
}

func applyWatchFlagBindings(flags *pflag.FlagSet, wopts *watchOptions, cfg *app.Config) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "sound":
			cfg.Alert.Enabled = wopts.sound
		case "metrics":
			cfg.Observability.Enabled = wopts.metrics
		case "metrics-addr":
			cfg.Observability.ListenAddress = wopts.metricsAddr
		}
	})
}

func runWatch(ctx context.Context, cancel context.CancelFunc, opts *cliOptions, wopts watchOptions, a *app.Application) error {
	format := opts.format()

	stopOnLogout := a.Tokens().OnLogout(func() {
		opts.logger.Info("session ended, stopping watch")
		cancel()
	})
	defer stopOnLogout()

	go printChannelChanges(ctx, a.Channel().Watch(ctx), format)
	go printNewNotifications(ctx, a.Store().Watch(ctx), format)

	if wopts.interactive {
		go func() {
			err := readCommands(ctx, os.Stdin, a)
			if errors.Is(err, errQuit) {
				cancel()
			} else if err != nil {
				opts.logger.Warn("stdin reader stopped", zap.Error(err))
			}
		}()
	}

	if a.Tokens().Token() == "" {
		fmt.Fprintln(os.Stderr, "no session token; run `feedsync login` (watch continues and picks up a login)")
	}
	return a.Run()
}

func printChannelChanges(ctx context.Context, changes <-chan domain.StateChange, format outputFormat) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			_ = printStateChange(change, format)
		}
	}
}

// printNewNotifications diffs successive snapshots by ID. The first snapshot
// after a load is the baseline and is summarized rather than printed.
func printNewNotifications(ctx context.Context, snapshots <-chan domain.Collection, format outputFormat) {
	seen := make(map[string]struct{})
	baseline := false
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			if snap.Loading {
				baseline = true
				continue
			}
			if baseline {
				baseline = false
				seen = make(map[string]struct{}, len(snap.Items))
				for _, n := range snap.Items {
					seen[n.ID] = struct{}{}
				}
				if format != formatText {
					continue
				}
				if snap.Error != "" {
					fmt.Fprintln(os.Stderr, snap.Error)
					continue
				}
				fmt.Fprintf(stdout, "feed loaded: %d notifications, unread=%s\n", len(snap.Items), snap.DisplayCount())
				continue
			}
			if len(snap.Items) == 0 {
				clear(seen)
				continue
			}
			var fresh []domain.Notification
			for _, n := range snap.Items {
				if _, ok := seen[n.ID]; !ok {
					seen[n.ID] = struct{}{}
					fresh = append(fresh, n)
				}
			}
			for i := len(fresh) - 1; i >= 0; i-- {
				_ = printNotification(fresh[i], format)
			}
		}
	}
}

// readCommands handles single-letter commands from r. Any input also counts
// as a key press for unlocking the alert sound.
func readCommands(ctx context.Context, r io.Reader, a *app.Application) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		a.Input().Emit(alert.InputKey)
		switch strings.TrimSpace(scanner.Text()) {
		case "q":
			return errQuit
		case "s":
			fmt.Fprintf(stdout, "sound %s\n", onOff(a.Alert().Toggle()))
		case "m":
			if err := a.Store().MarkAllRead(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "mark all read failed: %v\n", err)
			}
		case "r":
			if err := a.Store().LoadBaseline(ctx, domain.ListFilter{Limit: a.Config().Feed.PageSize}); err != nil {
				fmt.Fprintf(os.Stderr, "refresh failed: %v\n", err)
			}
		}
	}
	return scanner.Err()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
