// Package cmd provides the vecfusectl commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecfuse/internal/app"
	"github.com/kailas-cloud/vecfuse/internal/config"
	logpkg "github.com/kailas-cloud/vecfuse/internal/logger"
	"github.com/kailas-cloud/vecfuse/internal/version"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	env        string
	backend    string
	catalog    string
	logLevel   string
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var opts globalOptions

	cmd := &cobra.Command{
		Use:   "vecfusectl",
		Short: "Hybrid product search from the command line",
		Long: `vecfusectl runs hybrid lexical + vector product searches, imports catalogs
and prints catalog analytics against the configured backend.

With the local backend the catalog lives in memory: pass --catalog to load
a JSON file of products before the command runs.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("vecfusectl version {{.Version}} (" + version.Commit + ")\n")

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: config/<env>.yaml)")
	cmd.PersistentFlags().StringVar(&opts.env, "env", "", "Environment name (default: $ENV or local)")
	cmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "Override backend driver: redis, local")
	cmd.PersistentFlags().StringVar(&opts.catalog, "catalog", "", "JSON catalog to load into the local backend")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newSearchCmd(&opts),
		newImportCmd(&opts),
		newAnalyticsCmd(&opts),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// loadConfig resolves the config file and applies flag overrides.
func loadConfig(opts *globalOptions) (config.Config, error) {
	_ = godotenv.Load()

	var (
		cfg config.Config
		err error
	)
	switch {
	case opts.configPath != "":
		cfg, err = config.LoadFile(opts.configPath)
	case opts.env != "":
		cfg, err = config.Load(opts.env)
	default:
		cfg, err = config.Load(config.GetEnv())
	}
	if err != nil {
		return config.Config{}, err
	}

	if opts.backend != "" {
		cfg.Backend.Driver = opts.backend
	}
	if opts.catalog != "" {
		cfg.Backend.CatalogFile = opts.catalog
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// withApp wires the services for one command invocation.
func withApp(ctx context.Context, opts *globalOptions, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := logpkg.NewLogger("local", opts.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(ctx, &cfg, logger)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer a.Close()

	logger.Debug("vecfusectl ready", zap.String("backend", cfg.Backend.Driver))
	return fn(logpkg.ContextWithLogger(ctx, logger), a)
}
