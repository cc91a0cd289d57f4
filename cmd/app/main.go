package main

import (
	"flag"
	"log"

	"UpliftAPI/internal/di"
	"UpliftAPI/pkg/config"
	applogger "UpliftAPI/pkg/logger"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	l := app.Logger()
	l.Info("starting",
		applogger.String("models_source", cfg.Models.Source),
		applogger.Bool("models_lazy", cfg.Models.Lazy),
		applogger.Bool("cache", cfg.Cache.Enabled),
		applogger.Int("port", cfg.Server.Port),
	)

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		l.Fatal("app stopped", applogger.Error(err))
	}
}
