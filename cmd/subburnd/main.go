package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"subburn/internal/api"
	"subburn/internal/config"
	"subburn/internal/daemon"
	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/pipeline"
	"subburn/internal/preflight"
)

func main() {
	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		os.Exit(1)
	}

	for _, check := range preflight.RunAll(ctx, cfg) {
		if check.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", check.Name), logging.String("detail", check.Detail))
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", check.Name), logging.String("detail", check.Detail))
	}

	manager := pipeline.NewManager(cfg, store, logger)
	manager.ConfigureStages(buildStages(cfg, logger))

	service := api.NewJobService(cfg, store, manager, logger)

	d, err := daemon.New(cfg, store, manager, service, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		store.Close()
		os.Exit(1)
	}

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		d.Close()
		os.Exit(1)
	}
	logger.Info("daemon listening", logging.String("address", d.Addr()))

	<-ctx.Done()
	logger.Info("subburnd shutting down")
	if err := d.Close(); err != nil {
		logger.Warn("shutdown", logging.Error(err))
	}
}
