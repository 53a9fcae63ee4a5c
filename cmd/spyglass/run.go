package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"workspacehq/spyglass/pkg/auth"
	"workspacehq/spyglass/pkg/config"
	"workspacehq/spyglass/pkg/monitor"
	"workspacehq/spyglass/pkg/server"
	"workspacehq/spyglass/pkg/telemetry/health"
	"workspacehq/spyglass/pkg/telemetry/logging"
	"workspacehq/spyglass/pkg/telemetry/metrics"
	"workspacehq/spyglass/pkg/upstream"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Spyglass server",
	Long: `Start the Spyglass server with the specified configuration.

The server exposes health, metrics, and API status endpoints over HTTP
while monitoring the configured upstream Workspace API families.

Examples:
  # Start with default config
  spyglass run

  # Start with custom config
  spyglass run --config /etc/spyglass/config.yaml

  # Override listen address
  spyglass run --listen 0.0.0.0:8080

  # Validate config without starting server
  spyglass run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Spyglass v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	tokens := buildTokenSource(cfg)

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	mon := monitor.New(collector, logger, monitor.Config{
		RetryAfterHeader: cfg.Telemetry.Monitor.RetryAfterHeader,
		RemainingHeader:  cfg.Telemetry.Monitor.RemainingHeader,
	})

	clients := upstream.BuildClients(cfg.Upstreams, tokens, mon)
	probers := make([]health.Prober, 0, len(clients))
	for _, client := range clients {
		probers = append(probers, client)
	}
	fmt.Printf("✓ Upstreams configured (%d families)\n", len(clients))

	checker := health.New(tokens, probers, &cfg.Telemetry.Health, logger, Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sampler := health.NewSampler(checker, collector, cfg.Telemetry.Health.SampleInterval, logger)
	if err := sampler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health sampler: %w", err)
	}
	defer sampler.Stop()

	// Watch the config file so upstream and threshold edits are noticed
	// without a restart. Server settings still need one.
	watcher := config.NewWatcher(cfgFile, 0, func(next *config.Config) error {
		logger.Info("configuration reloaded",
			"upstreams", len(next.Upstreams),
			"note", "server listen settings apply on restart",
		)
		return nil
	})
	go func() {
		if err := watcher.Watch(ctx); err != nil {
			logger.Warn("config watcher stopped", "error", err)
		}
	}()
	defer watcher.Stop()

	srv := server.New(&cfg.Server, logger, collector, mon, checker)

	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Server.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a signal, context cancellation, or server error.
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

// loadConfig reads the configured file, falling back to defaults when the
// default config path does not exist.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		if !rootCmd.PersistentFlags().Changed("config") {
			cfg := config.DefaultConfig()
			return cfg, nil
		}
		return nil, fmt.Errorf("config file %q not found", cfgFile)
	}
	return config.LoadConfigWithEnvOverrides(cfgFile)
}

// buildTokenSource picks the credential source: the configured file when
// set, otherwise the SPYGLASS_ACCESS_TOKEN environment variable.
func buildTokenSource(cfg *config.Config) auth.TokenSource {
	if cfg.Auth.CredentialFile != "" {
		return auth.NewFileTokenSource(cfg.Auth.CredentialFile)
	}
	return auth.NewStaticTokenSource(&auth.Token{
		AccessToken: os.Getenv("SPYGLASS_ACCESS_TOKEN"),
	})
}
