package cmd

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jjenkins/billtracker/internal/handlers"
	"github.com/jjenkins/billtracker/internal/service"
	"github.com/jjenkins/billtracker/internal/store"
)

var port string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bill tracker API server",
	Long: `Start a JSON API over the tracker. Categories and bills are resolved
against the legislative API on first request and kept for the life of the
process. With SHEET_CACHE_TTL set the sheets are re-read once the cache
expires. History and stored metrics are served when DATABASE_URL is set.`,
	Run: func(cmd *cobra.Command, args []string) {
		env, err := loadEnvironment("billtracker")
		if err != nil {
			cmd.PrintErrf("Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		log := env.log

		// Flag wins over PORT when set explicitly
		if !cmd.Flags().Changed("port") {
			port = env.cfg.Port
		}

		tracker, err := newTracker(env)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create tracker")
		}

		stats, err := tracker.Load(context.Background())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load editorial sheets")
		}
		if stats.Warnings > 0 {
			log.Warn().Int("warnings", stats.Warnings).Msg("Editorial sheets loaded with warnings")
		}

		app := fiber.New(fiber.Config{
			AppName: "Bill Tracker",
		})

		app.Use(fiberlogger.New())

		api := app.Group("/api")
		api.Get("/categories", handlers.CategoriesHandler(tracker))
		api.Get("/categories/:id", handlers.CategoryDetailHandler(tracker))
		api.Get("/bills/:key", handlers.BillDetailHandler(tracker))

		var metrics handlers.MetricsReader
		if env.cfg.DatabaseURL != "" {
			db, err := store.NewDB(env.cfg.DatabaseURL)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to connect to database")
			}
			defer db.Close()

			bills := store.NewBillStore(db)
			api.Get("/bills/:key/history", handlers.BillHistoryHandler(bills))
			api.Get("/history/dates", handlers.SnapshotDatesHandler(bills))
			api.Get("/history/categories/:id", handlers.StoredCategoryHandler(store.NewCategoryStore(db)))
			metrics = service.NewMetricsService(db)
		}
		api.Get("/summary", handlers.SummaryHandler(tracker, metrics))

		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

		log.Info().Str("port", port).Msg("Starting server")
		if err := app.Listen(":" + port); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&port, "port", "p", "8080", "Port to run the server on")
}
