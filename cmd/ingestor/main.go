package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sabawaheed27/motofix-europe/internal/adapters/observability"
	"github.com/sabawaheed27/motofix-europe/internal/bootstrap"
	"github.com/sabawaheed27/motofix-europe/internal/domain"
	"github.com/sabawaheed27/motofix-europe/internal/shared"
)

var rootCmd = &cobra.Command{
	Use:           "ingestor",
	Short:         "Batch jobs for the shop directory",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(placesCmd, seedCmd, userCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("ingestor failed")
	}
}

// env is what every subcommand needs: config, logger, backend and cache.
type env struct {
	cfg   shared.Config
	be    *bootstrap.Backend
	cache domain.Cache
	close func()
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := shared.Load()
	if err != nil {
		return nil, err
	}

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	be, err := bootstrap.Open(ctx, cfg, true)
	if err != nil {
		return nil, err
	}
	cache, closeCache := bootstrap.Cache(ctx, cfg)
	return &env{cfg: cfg, be: be, cache: cache, close: func() {
		closeCache()
		be.Close()
	}}, nil
}
