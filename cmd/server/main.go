package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mithril/internal/allocation"
	"mithril/internal/bom"
	bomservice "mithril/internal/bom/service"
	"mithril/internal/broker"
	"mithril/internal/cache"
	"mithril/internal/commons"
	"mithril/internal/component"
	"mithril/internal/config"
	"mithril/internal/infrastructure/logger"
	"mithril/internal/infrastructure/mysql"
	"mithril/internal/ledger"
	"mithril/internal/server"
)

func main() {
	var cfg *config.Config
	var err error
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		cfg, err = commons.LoadConfigFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	txm := mysql.NewTxManager(db, cfg.Allocation.TxTimeout)

	var publisher broker.Publisher = broker.NopPublisher{}
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, zapLogger)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		zapLogger.Info("kafka producer ready", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	var costCache bomservice.CostCache = cache.NopCostCache{}
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewCostSummaryCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CacheTTL)
		if err != nil {
			zapLogger.Fatal("connecting to redis", zap.Error(err))
		}
		costCache = redisCache
		zapLogger.Info("redis cache ready", zap.String("addr", cfg.Redis.Addr))
	}

	ledgerSvc, movementCtrl := ledger.NewModule(db, txm, publisher, zapLogger)
	_, allocationCtrl := allocation.NewModule(db, txm, ledgerSvc, publisher, cfg.Allocation, zapLogger)
	_, costCtrl := bom.NewModule(db, costCache, publisher, cfg.Costing, zapLogger)
	componentCtrl := component.NewModule(db, zapLogger)

	router := server.NewRouter(allocationCtrl, movementCtrl, costCtrl, componentCtrl, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
