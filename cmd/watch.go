package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/humorloos/feierabend/internal/calendar"
	"github.com/humorloos/feierabend/internal/config"
	"github.com/humorloos/feierabend/internal/logging"
	"github.com/humorloos/feierabend/internal/watchstore"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage calendar watch channels",
	}
	cmd.AddCommand(newWatchSetupCmd())
	cmd.AddCommand(newWatchListCmd())
	cmd.AddCommand(newWatchStopCmd())
	return cmd
}

func newWatchSetupCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register watch channels for all owned calendars",
		Long: `Register a push notification channel for every owned calendar that is not
on the ignore list. Existing channels for those calendars are stopped first,
so running setup again renews all channels.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if address != "" {
				cfg.WebhookAddress = address
			}
			if cfg.WebhookAddress == "" {
				return fmt.Errorf("a public webhook address is required (--address or webhook_address)")
			}

			log := logging.WithOperation(logging.Setup(cfg.LogLevel, cfg.LogFormat), "watch-setup")
			ctx := cmd.Context()

			client, err := calendar.NewClientForAccount(ctx, cfg.Account, cfg.IgnoreCalendars)
			if err != nil {
				return err
			}
			store, err := watchstore.Load(cfg.WatchStateDir())
			if err != nil {
				return err
			}

			return setupWatches(ctx, client, store, cfg, log)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Public HTTPS URL notifications are delivered to (overrides webhook_address)")

	return cmd
}

func setupWatches(ctx context.Context, client *calendar.Client, store watchstore.Store, cfg *config.Config, log *slog.Logger) error {
	calendars, err := client.Calendars(ctx)
	if err != nil {
		return err
	}
	existing, err := store.All(ctx)
	if err != nil {
		return err
	}
	byCalendar := make(map[string][]watchstore.Registration)
	for _, reg := range existing {
		byCalendar[reg.CalendarID] = append(byCalendar[reg.CalendarID], reg)
	}

	for _, info := range calendars {
		// Stop stale channels before opening a fresh one, keeping exactly
		// one channel per calendar.
		for _, old := range byCalendar[info.ID] {
			if err := client.StopChannel(ctx, old.ChannelID, old.ResourceID); err != nil {
				log.Warn("failed to stop old channel, dropping registration anyway",
					logging.ChannelID(old.ChannelID), logging.Calendar(old.Name), logging.Err(err))
			}
			if err := store.Delete(old.ChannelID); err != nil {
				return err
			}
		}

		channelID := uuid.NewString()
		resourceID, expiration, err := client.WatchEvents(ctx, info.ID, channelID, cfg.WebhookAddress, cfg.WatchTTL)
		if err != nil {
			return fmt.Errorf("failed to watch calendar %q: %w", info.Summary, err)
		}
		if err := store.Put(watchstore.Registration{
			ChannelID:  channelID,
			CalendarID: info.ID,
			Name:       info.Summary,
			ResourceID: resourceID,
			Expiration: expiration,
		}); err != nil {
			return err
		}
		log.Info("watching calendar",
			logging.Calendar(info.Summary), logging.ChannelID(channelID), "expires", expiration)
	}
	return nil
}

func newWatchListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered watch channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			store, err := watchstore.Load(cfg.WatchStateDir())
			if err != nil {
				return err
			}
			regs, err := store.All(cmd.Context())
			if err != nil {
				return err
			}
			if len(regs) == 0 {
				fmt.Println("no watch channels registered")
				return nil
			}
			for _, reg := range regs {
				fmt.Printf("%s\t%s\texpires %s\n", reg.Name, reg.ChannelID, reg.Expiration.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newWatchStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop all registered watch channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			client, err := calendar.NewClientForAccount(ctx, cfg.Account, cfg.IgnoreCalendars)
			if err != nil {
				return err
			}
			store, err := watchstore.Load(cfg.WatchStateDir())
			if err != nil {
				return err
			}
			regs, err := store.All(ctx)
			if err != nil {
				return err
			}
			for _, reg := range regs {
				if err := client.StopChannel(ctx, reg.ChannelID, reg.ResourceID); err != nil {
					fmt.Printf("failed to stop channel %s (%s): %v\n", reg.ChannelID, reg.Name, err)
				}
				if err := store.Delete(reg.ChannelID); err != nil {
					return err
				}
			}
			fmt.Printf("stopped %d channel(s)\n", len(regs))
			return nil
		},
	}
}
