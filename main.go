package main

import (
	"os"

	"go.uber.org/zap"

	"truecrime-studio/config"
	"truecrime-studio/routers"
	"truecrime-studio/routers/api"
	"truecrime-studio/service"
	"truecrime-studio/storage"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	cfgPath := os.Getenv("STUDIO_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	var store storage.KVStore
	store, err = storage.OpenSQLiteStore(cfg.Storage.Path, cfg.Storage.CapacityBytes)
	if err != nil {
		// Degraded mode: nothing survives a restart, but the app stays up.
		log.Error("sqlite store unavailable, falling back to memory", zap.Error(err))
		store = storage.NewMemStore(cfg.Storage.CapacityBytes)
	}

	cacheMgr := storage.NewCacheManager(store, config.AppVersion, log)
	cacheMgr.Initialize()

	repo := storage.NewRepository(store, log)
	monitor := storage.NewMonitor(store, log)
	optimizer := storage.NewOptimizer(repo, monitor, log)
	session := service.NewSession(repo, cfg, log)
	defer session.Close()

	stopMonitor := monitor.Start(cfg.MonitorInterval(), func(u storage.Usage) {
		optimizer.AutoRecover(u, cfg.Storage.RecoveryPercent)
	})
	defer stopMonitor()

	services := service.NewServices(cfg, log)

	var gateway service.BlobGateway
	if gw, err := service.NewMinioGateway(cfg, log); err != nil {
		log.Warn("blob offload unavailable, payloads stay inline", zap.Error(err))
	} else {
		gateway = gw
	}

	tasks := service.NewTaskRegistry()
	queue := service.NewQueue(cfg, log)
	defer queue.Close()

	processor := service.NewProcessor(session, services, gateway, tasks, log)
	if err := processor.Start(cfg, 5); err != nil {
		log.Fatal("start processor", zap.Error(err))
	}
	defer processor.Shutdown()

	h := &api.Handler{
		Session:         session,
		Repo:            repo,
		Monitor:         monitor,
		Optimizer:       optimizer,
		Tasks:           tasks,
		Queue:           queue,
		Services:        services,
		Log:             log,
		RecoveryPercent: cfg.Storage.RecoveryPercent,
	}

	r := routers.InitRouter(h)
	log.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := r.Run(cfg.Server.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
