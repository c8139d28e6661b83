package main

import (
	"context"
	"flag"
	"log"

	"github.com/jmp1617/pyrip/internal/bootstrap"
	"github.com/jmp1617/pyrip/internal/config"
	"github.com/jmp1617/pyrip/internal/logger"
	zapfactory "github.com/jmp1617/pyrip/internal/logger/zap"
	"github.com/jmp1617/pyrip/internal/telemetry"
)

var defaultConfigPath = "config/ripd.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	localAddr := flag.Arg(0)
	if localAddr == "" {
		log.Fatal("usage: ripd [-config path] <local-address>")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %q: %v", *configPath, err)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.ValidateConfig(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	var lgr logger.Logger
	if cfg.Logger.Active {
		zapLog, err := zapfactory.New(cfg.Logger)
		if err != nil {
			log.Fatalf("failed to initialize logger: %v", err)
		}
		defer func() { _ = zapLog.Sync() }()
		lgr = zapfactory.NewZapAdapter(zapLog)
	} else {
		lgr = &logger.NopLogger{}
	}
	cfg.LogConfig(lgr)

	self, err := bootstrap.Resolve(cfg, localAddr)
	if err != nil {
		log.Fatalf("failed to resolve local router identity: %v", err)
	}
	lgr = lgr.Named(self.Name)
	lgr.Info("router identity resolved", logger.F("address", self.Address), logger.F("port", self.Port))

	shutdown := telemetry.InitTracer(cfg.Telemetry.Tracing, self.Name)
	defer shutdown(context.Background())

	router, err := bootstrap.New(cfg, self, lgr)
	if err != nil {
		log.Fatalf("failed to bootstrap router: %v", err)
	}
	defer router.Sock.Close()

	lgr.Info("router started", logger.F("neighbors", self.Neighbors))
	router.Run()
}
