package main

import (
	"context"

	"github.com/yatube/yatube/config"
	"github.com/yatube/yatube/routes"
	"github.com/yatube/yatube/storage"
	"github.com/yatube/yatube/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(cfg)

	blobs, err := storage.New(context.Background(), cfg)
	if err != nil {
		utils.Sugar.Fatalf("media storage: %v", err)
	}

	accessLog, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		utils.Sugar.Warnf("access log disabled, using application log: %v", err)
		accessLog = nil
	}

	r := routes.SetupRouter(routes.Deps{
		DB:        db,
		Config:    cfg,
		Stores:    utils.NewStores(cfg),
		Blobs:     blobs,
		AccessLog: accessLog,
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
