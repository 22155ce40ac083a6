package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/freytube/freytube/internal/app"
	"github.com/freytube/freytube/internal/config"
	"github.com/freytube/freytube/internal/env"
	"github.com/freytube/freytube/internal/logger"
	"github.com/freytube/freytube/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "freytube",
		Short: "Privacy-first YouTube client backed by Piped and Invidious instances",
		Long: `freytube reads the YouTube catalog through public Piped instances and
falls back to Invidious when every Piped instance fails.

Run "freytube serve" for the local API, or query the catalog directly:
  freytube trending --region GB
  freytube search "golang generics"
  freytube video dQw4w9WgXcQ`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if configFile != "" {
				_ = os.Setenv(config.EnvConfigFile, configFile)
			}
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a config file (default ./config.yaml)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())
	root.AddCommand(newCatalogCmds()...)
	root.AddCommand(newInstancesCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local API with downloads and background instance discovery",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return serve()
		},
	}
}

func newVersionCmd() *cobra.Command {
	var extended, short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), version.Summary())
				return
			}
			version.PrintVersionInfo(extended, log.New(cmd.OutOrStdout(), "", 0))
		},
	}
	cmd.Flags().BoolVar(&extended, "extended", false, "Include commit and build details")
	cmd.Flags().BoolVar(&short, "short", false, "Print a single line summary")
	return cmd
}

func serve() error {
	startTime := time.Now()
	version.PrintVersionInfo(false, log.New(log.Writer(), "", 0))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logInstance, styledLogger, cleanup, err := logger.NewWithTheme(buildLoggerConfig(cfg.Logging))
	if err != nil {
		return fmt.Errorf("failed to initialise logger: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logInstance)

	if cfg.Filename != "" {
		styledLogger.Info("Loaded configuration", "file", cfg.Filename)
	}
	styledLogger.Info("Initialising", "version", version.Version, "pid", os.Getpid())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(startTime, cfg, styledLogger)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	<-ctx.Done()
	styledLogger.Info("Shutdown signal received")

	if err := application.Stop(context.Background()); err != nil {
		styledLogger.Error("Error during shutdown", "error", err)
	}

	reportSessionStats(styledLogger, application, startTime)
	styledLogger.Info("FreyTube has shutdown")
	return nil
}

func reportSessionStats(log *logger.StyledLogger, application *app.Application, startTime time.Time) {
	totals := application.Core().Stats.Totals()
	log.Info("Session Stats",
		"uptime", time.Since(startTime).Round(time.Second),
		"attempts", totals.Attempts,
		"successes", totals.Successes,
		"failures", totals.Failures,
		"avg_latency_ms", totals.AverageLatency,
	)

	for instanceURL, s := range application.Core().Stats.InstanceStats() {
		if s.Failures > 0 {
			log.WarnWithEndpoint("Instance had failures", instanceURL, "failures", s.Failures, "successes", s.Successes)
		}
	}
}

// buildLoggerConfig starts from the logging section of the config file and
// lets the FREYTUBE_LOG_* variables override it
func buildLoggerConfig(logging config.LoggingConfig) *logger.Config {
	return &logger.Config{
		Level:      env.GetEnvOrDefault("FREYTUBE_LOG_LEVEL", logging.Level),
		Format:     env.GetEnvOrDefault("FREYTUBE_LOG_FORMAT", logging.Format),
		Output:     env.GetEnvOrDefault("FREYTUBE_LOG_OUTPUT", logging.Output),
		FileOutput: env.GetEnvBoolOrDefault("FREYTUBE_FILE_OUTPUT", true),
		LogDir:     env.GetEnvOrDefault("FREYTUBE_LOG_DIR", "./logs"),
		MaxSize:    env.GetEnvIntOrDefault("FREYTUBE_MAX_SIZE", 100),
		MaxBackups: env.GetEnvIntOrDefault("FREYTUBE_MAX_BACKUPS", 5),
		MaxAge:     env.GetEnvIntOrDefault("FREYTUBE_MAX_AGE", 30),
		Theme:      env.GetEnvOrDefault("FREYTUBE_THEME", "default"),
	}
}
