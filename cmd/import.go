package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jjenkins/billtracker/internal/service"
	"github.com/jjenkins/billtracker/internal/store"
)

var importDate string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Resolve every tracked bill and store its merged status",
	Long: `Import loads the editorial spreadsheet, fetches every referenced official
bill from the legislative API, merges them into one status per bill, and
stores the result in PostgreSQL. A snapshot is written only when a bill's
merged status changed since that day's snapshot.

Examples:
  # Import for today's date
  ./billtracker import

  # Import for a specific date
  ./billtracker import --date 2025-05-20

  # Use a custom options file
  ./billtracker import --options tracker.yaml`,
	Run: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	today := time.Now().Format("2006-01-02")
	importCmd.Flags().StringVarP(&importDate, "date", "d", today, "Snapshot date (YYYY-MM-DD)")
}

func runImport(cmd *cobra.Command, args []string) {
	env, err := loadEnvironment("billtracker-import")
	if err != nil {
		cmd.PrintErrf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := env.log

	if env.cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL environment variable is required")
	}

	snapshotDate, err := time.Parse("2006-01-02", importDate)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid date format")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn().Msg("Received interrupt signal, shutting down...")
		cancel()
	}()

	log.Info().Msg("Connecting to database...")
	db, err := store.NewDB(env.cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := store.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare database")
	}

	tracker, err := newTracker(env)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create tracker")
	}

	importer := service.NewImporter(tracker, store.NewBillStore(db), store.NewCategoryStore(db), log)

	log.Info().Str("date", importDate).Msg("Starting import")
	stats, summary, err := importer.Import(ctx, snapshotDate)
	if err != nil {
		if ctx.Err() != nil {
			log.Warn().Msg("Import cancelled")
			if stats != nil {
				importer.PrintSummary(stats)
			}
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Import failed")
	}
	importer.PrintSummary(stats)

	counts, err := tracker.AggregateCounts(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch aggregate counts")
	}
	summary.Stats = counts

	log.Info().Msg("Storing tracker metrics...")
	metricsService := service.NewMetricsService(db)
	if err := metricsService.CalculateAndStore(ctx, summary); err != nil {
		log.Warn().Err(err).Msg("Failed to store metrics")
	} else {
		log.Info().
			Int("bills", summary.Bills).
			Int("categories", summary.Categories).
			Int("with_official_bill", summary.WithOfficialBill).
			Int("signed", summary.Signed).
			Int("in_conference", summary.InConference).
			Int("recently_updated", summary.Recent).
			Int("aggregate_stats", len(summary.Stats)).
			Msg("Tracker metrics")
	}

	if stored, err := metricsService.StoredCounts(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to count stored records")
	} else {
		log.Info().
			Int("bills", stored.Bills).
			Int("categories", stored.Categories).
			Interface("bills_by_state", stored.BillsByState).
			Msg("Stored records")
	}

	if stats.Failed > 0 {
		os.Exit(1)
	}
}
