package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JAlbrecht-svg/inkasso-console/internal/bus"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Follow the change feed of other workstations",
}

var feedGroup, feedConsumer string

var feedFollowCmd = &cobra.Command{
	Use:   "follow",
	Short: "Print changes published to the Redis stream until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg.Redis.URL == "" {
			return errors.New("no change feed configured; set --redis or redis.url")
		}
		logger := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, "[Feed] ")
		b, err := bus.NewRedisBus(cfg.Redis.URL, cfg.Redis.Stream, actor(), logger)
		if err != nil {
			return err
		}
		defer b.Close()

		consumer := feedConsumer
		if consumer == "" {
			consumer = actor()
		}
		out := cmd.OutOrStdout()
		err = b.Follow(cmd.Context(), feedGroup, consumer, func(ctx context.Context, msg bus.ChangeMessage) error {
			if jsonOutput {
				return printJSON(out, msg)
			}
			c := msg.Change
			fmt.Fprintf(out, "%s  %-16s %-8s %-8s %s  (%s)\n",
				c.At.Format("2006-01-02 15:04:05"), c.Kind, c.EntityID, dash(c.CaseID), c.Summary, msg.Source)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

var feedStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stream statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		b := bus.NewBus(cfg.Redis.URL, cfg.Redis.Stream, actor(), newLogger(cmd.ErrOrStderr(), cfg.Log.Level, "[Feed] "))
		defer b.Close()
		stats, err := b.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), stats)
	},
}

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.AddCommand(feedFollowCmd, feedStatsCmd)

	feedFollowCmd.Flags().StringVar(&feedGroup, "group", "inkasso-console", "Consumer group")
	feedFollowCmd.Flags().StringVar(&feedConsumer, "consumer", "", "Consumer name (default user@host)")
}
