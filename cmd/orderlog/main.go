package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-bookstore.git/internal/config"
	"github.com/ariefcatur/go-bookstore.git/internal/history"
	kafkax "github.com/ariefcatur/go-bookstore.git/internal/kafka"
	"github.com/ariefcatur/go-bookstore.git/internal/logging"
	"github.com/ariefcatur/go-bookstore.git/internal/postgres"
	"github.com/ariefcatur/go-bookstore.git/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const serviceName = "orderlog"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, serviceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &history.Service{
		Store: &history.Repo{DB: db},
		Dedup: &redisx.Dedup{RDB: rdb, Service: serviceName},
		Log:   log,
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.OrderLogGroup, cfg.OrdersTopic, cfg.OrderLogWorkers, log)
	done := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"group":   cfg.OrderLogGroup,
			"topic":   cfg.OrdersTopic,
			"workers": cfg.OrderLogWorkers,
		}).Info("order log consumer started")
		done <- cons.Start(ctx, svc.HandleOrderEvent)
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("shutting down consumer...")
		cancel()
		select {
		case err = <-done:
		case <-time.After(5 * time.Second):
			log.Warn("consumer did not stop in time")
		}
	case err = <-done:
		cancel()
	}
	if err != nil {
		log.WithError(err).Error("consumer exit")
	}
}
