package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jjenkins/billtracker/internal/config"
	"github.com/jjenkins/billtracker/internal/logger"
	"github.com/jjenkins/billtracker/internal/service"
	"github.com/jjenkins/billtracker/internal/sheets"
)

var optionsPath string
var logLevel string

var rootCmd = &cobra.Command{
	Use:   "billtracker",
	Short: "Track state legislation curated in an editorial spreadsheet",
	Long: `billtracker reads an editorial spreadsheet of categories, bills and
custom events, fetches the matching official bills from a legislative data
API, and merges them into a single status per bill.

Configuration is read from the environment (STATE, SESSION, API_KEY,
SHEET_SOURCE, DATABASE_URL, ...; each may be prefixed with TRACKER_).`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&optionsPath, "options", "", "Path to a YAML options file (overrides OPTIONS_FILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
}

// environment is the configuration shared by every command
type environment struct {
	cfg  *config.Config
	opts config.Options
	log  zerolog.Logger
}

func loadEnvironment(serviceName string) (*environment, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if optionsPath != "" {
		cfg.OptionsFile = optionsPath
	}

	log := logger.New(serviceName, cfg.LogLevel)
	cfg.LogSummary(log)

	opts, err := config.LoadOptions(cfg.OptionsFile)
	if err != nil {
		return nil, err
	}

	return &environment{cfg: cfg, opts: opts, log: log}, nil
}

// newTracker wires the sheet source and API clients into a Tracker
func newTracker(env *environment) (*service.Tracker, error) {
	var source sheets.Source
	if env.cfg.SheetsFromWorkbook() {
		source = sheets.NewXLSXSource(env.cfg.SheetSource)
	} else {
		if !sheets.IsTemplate(env.cfg.SheetSource) {
			return nil, fmt.Errorf("SHEET_SOURCE must be an .xlsx path or a URL containing {sheet}, got %q", env.cfg.SheetSource)
		}
		source = sheets.NewCSVSource(env.cfg.SheetSource)
	}
	if env.cfg.SheetCacheTTL > 0 {
		source = sheets.NewCachedSource(source, env.cfg.SheetCacheTTL)
	}

	api := service.NewLegislatureClient(env.cfg.APIBaseURL, env.cfg.APIKey)
	aggregate := service.NewAggregateClient(env.cfg.AggregateURL)

	return service.NewTracker(env.cfg.State, env.cfg.Session, env.opts, source, api, aggregate, env.log), nil
}
