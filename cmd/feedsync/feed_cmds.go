package main

import (
	"github.com/spf13/cobra"

	"feedsync/internal/app"
	"feedsync/internal/domain"
	"feedsync/internal/feed"
)

func newListCmd(opts *cliOptions) *cobra.Command {
	var filter domain.ListFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return exitFor(err)
			}
			if !cmd.Flags().Changed("limit") {
				filter.Limit = cfg.Feed.PageSize
			}
			return withApplication(cmd.Context(), opts, cfg, func(a *app.Application) error {
				result, err := feed.NewFetcher(a.API(), opts.logger).List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return printList(result, opts.format())
			})
		},
	}
	cmd.Flags().IntVar(&filter.Limit, "limit", domain.DefaultPageSize, "page size (1-100)")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "number of notifications to skip")
	cmd.Flags().BoolVar(&filter.UnreadOnly, "unread-only", false, "only unread notifications")
	return cmd
}

func newCountCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show the unread notification count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return exitFor(err)
			}
			return withApplication(cmd.Context(), opts, cfg, func(a *app.Application) error {
				if err := a.Store().RefreshUnreadCount(cmd.Context()); err != nil {
					return err
				}
				return printCount(a.Store().Snapshot().UnreadCount, opts.format())
			})
		},
	}
}

func newReadCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>...",
		Short: "Mark notifications as read",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return exitFor(err)
			}
			return withApplication(cmd.Context(), opts, cfg, func(a *app.Application) error {
				if err := a.Store().MarkRead(cmd.Context(), args); err != nil {
					return err
				}
				return printMarkResult("marked", a.Store().Snapshot(), opts.format())
			})
		},
	}
}

func newReadAllCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return exitFor(err)
			}
			return withApplication(cmd.Context(), opts, cfg, func(a *app.Application) error {
				if err := a.Store().MarkAllRead(cmd.Context()); err != nil {
					return err
				}
				return printMarkResult("marked-all", a.Store().Snapshot(), opts.format())
			})
		},
	}
}
