// The keeper drives the token rate oracle over wall-clock time: it syncs
// token configuration from its config file, refreshes stale prices on a
// fixed cadence, and runs the daily job stream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/EigenExplorer/liquid-avs-token-sub007/cmd/keeper/config"
	"github.com/EigenExplorer/liquid-avs-token-sub007/oracle"
	"github.com/EigenExplorer/liquid-avs-token-sub007/resolver"
	"github.com/EigenExplorer/liquid-avs-token-sub007/scheduler"
)

const defaultMetricsListen = ":9090"

func main() {
	configPath := flag.String("config", "keeper.yaml", "path to the keeper config file")
	flag.Parse()

	rootLogger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	closeApp := func(msg string, err error) {
		rootLogger.Error(msg, "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		closeApp("Failed to load configuration", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ethClient, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		closeApp("Failed to connect to RPC endpoint", err)
	}
	defer ethClient.Close()

	res, err := resolver.New(resolver.Config{
		Caller: ethClient,
		Logger: rootLogger.With("component", "resolver"),
	})
	if err != nil {
		closeApp("Failed to initialize resolver", err)
	}

	orc, err := oracle.New(oracle.Config{
		Resolver: res,
		Logger:   rootLogger.With("component", "oracle"),
	})
	if err != nil {
		closeApp("Failed to initialize oracle", err)
	}

	// The keeper owns its in-process state model outright.
	auth := oracle.NewAuth(oracle.CapConfigurator, oracle.CapRateUpdater, oracle.CapAdmin)

	if cfg.PriceUpdateInterval > 0 {
		if err := orc.SetPriceUpdateInterval(auth, cfg.PriceUpdateInterval); err != nil {
			closeApp("Failed to set price update interval", err)
		}
	}

	syncer := &fileConfigSyncer{
		path:   *configPath,
		oracle: orc,
		auth:   auth,
		logger: rootLogger.With("component", "config-syncer"),
	}
	if err := syncer.SyncConfiguration(ctx); err != nil {
		closeApp("Failed to apply initial token configuration", err)
	}

	listen := cfg.MetricsListen
	if listen == "" {
		listen = defaultMetricsListen
	}
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(listen, nil); err != nil {
			rootLogger.Error("Metrics server stopped", "error", err)
		}
	}()

	sched, err := scheduler.New(scheduler.Config{
		Updater:              orc,
		Syncer:               syncer,
		Staker:               &stakeRunner{logger: rootLogger.With("component", "staker")},
		Logger:               rootLogger.With("component", "scheduler"),
		Registry:             prometheus.DefaultRegisterer,
		PriceUpdateFrequency: cfg.PriceUpdateFrequency,
		DailySpec:            cfg.DailySpec,
		MaxRetries:           cfg.MaxRetries,
		RetryDelay:           cfg.RetryDelay,
	})
	if err != nil {
		closeApp("Failed to initialize scheduler", err)
	}

	rootLogger.Info("Keeper starting", "tokens", len(cfg.Tokens), "metrics", listen)
	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		closeApp("Scheduler exited", err)
	}
	rootLogger.Info("Keeper shut down")
}

// fileConfigSyncer re-reads the config file and reconciles the oracle's
// token set against it: new and changed tokens are configured, tokens no
// longer listed are removed.
type fileConfigSyncer struct {
	path   string
	oracle *oracle.Oracle
	auth   oracle.Auth
	logger *slog.Logger
}

func (s *fileConfigSyncer) SyncConfiguration(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg, err := config.LoadConfig(s.path)
	if err != nil {
		return fmt.Errorf("reload %s: %w", s.path, err)
	}

	desired := make(map[common.Address]bool, len(cfg.Tokens))
	for _, entry := range cfg.Tokens {
		token, tokenCfg, err := entry.Parse()
		if err != nil {
			return err
		}
		desired[token] = true
		if err := s.oracle.ConfigureToken(s.auth, token, tokenCfg); err != nil {
			return err
		}
	}

	for _, token := range s.oracle.ConfiguredTokens() {
		if desired[token] {
			continue
		}
		s.logger.Info("removing token no longer in config", "token", token)
		if err := s.oracle.RemoveToken(s.auth, token); err != nil {
			return err
		}
	}
	return nil
}

// stakeRunner is the daily stream's staking hook. Proposal creation and
// signing live in external governance tooling; the keeper only reports that
// it has nothing queued.
type stakeRunner struct {
	logger *slog.Logger
}

func (s *stakeRunner) ProcessPending(ctx context.Context) error {
	s.logger.Info("no pending stake actions")
	return nil
}
