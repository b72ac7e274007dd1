package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cartography/internal/config"
	"cartography/internal/repository/sqlite"
	"cartography/internal/service"
)

var (
	configPath  string
	datasetsDir string
	dbPath      string
	devMode     bool
)

var rootCmd = &cobra.Command{
	Use:   "cartography",
	Short: "Render Stack Exchange domains as a navigable 3D universe",
	Long: `cartography ingests Stack Exchange dataset JSON files, lays them
out as a deterministic 3D universe of questions, tags and their
relations, and serves the scene to a fly-camera frontend.`,
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&datasetsDir, "datasets", "", "dataset directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "snapshot database path (overrides config, default in-memory)")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "development logging")
}

// loadConfig loads the config file and applies flag overrides
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configPath != "" {
		cfg, _, err = config.LoadFromPath(configPath)
	} else {
		cfg, _, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if datasetsDir != "" {
		cfg.Datasets.Dir = datasetsDir
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	if devMode {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// runOnce executes a single pipeline pass and returns the session.
// Used by the non-serving subcommands.
func runOnce(ctx context.Context) (*service.Session, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger()
	if err != nil {
		return nil, nil, err
	}

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Sync()
		return nil, nil, fmt.Errorf("open snapshot database: %w", err)
	}

	cleanup := func() {
		repo.Close()
		logger.Sync()
	}

	pipeline := service.NewPipeline(cfg, repo, service.NewEventBus(), logger)
	if err := pipeline.Run(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}

	return pipeline.Current(), cleanup, nil
}
