package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"example.com/activitytracker/internal/app"
	"example.com/activitytracker/internal/config"
	"example.com/activitytracker/internal/domain"
	"example.com/activitytracker/internal/persistence"
	"example.com/activitytracker/internal/platform/logger"
	"example.com/activitytracker/internal/synchronizer"
)

var (
	driverFlag string
	rootCmd    = &cobra.Command{
		Use:           "trackerctl",
		Short:         "Synchronize and inspect tracked activities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&driverFlag, "driver", "d", "", "Storage driver override (postgres|sqlite|memory)")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Import new activities from a source",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, _ := cmd.Flags().GetString("source")
			limit, _ := cmd.Flags().GetInt("limit")
			return withStore(cmd.Context(), func(store *persistence.Store, cfg config.Config, lg zerolog.Logger) error {
				svc := synchronizer.NewService(store.Repository, app.Sources(cfg, lg), lg)
				return runSync(cmd.Context(), svc, src, limit, os.Stdout)
			})
		},
	}
	syncCmd.Flags().StringP("source", "s", string(domain.SourceStrava), "Source to import from")
	syncCmd.Flags().IntP("limit", "l", 0, "Maximum number of activities to import (0 = no cap)")
	rootCmd.AddCommand(syncCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print dashboard statistics for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			period, _ := cmd.Flags().GetString("period")
			sport, _ := cmd.Flags().GetString("sport")
			return withStore(cmd.Context(), func(store *persistence.Store, cfg config.Config, lg zerolog.Logger) error {
				return runStats(cmd.Context(), domain.NewService(store.Repository), period, sport, time.Now().UTC(), os.Stdout)
			})
		},
	}
	statsCmd.Flags().StringP("period", "p", "month", "Period: week, month, 3months, 6months or year")
	statsCmd.Flags().String("sport", "", "Restrict to one sport")
	rootCmd.AddCommand(statsCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func withStore(ctx context.Context, fn func(*persistence.Store, config.Config, zerolog.Logger) error) error {
	cfg, err := config.LoadWithDriver(driverFlag)
	if err != nil {
		return err
	}
	lg := logger.New("trackerctl", cfg.Level())

	store, err := persistence.Open(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store, cfg, lg)
}
