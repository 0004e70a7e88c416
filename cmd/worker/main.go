package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thejoaov/cadweb-api/internal/config"
	"github.com/thejoaov/cadweb-api/internal/events"
	"github.com/thejoaov/cadweb-api/internal/invoices"
	kafkax "github.com/thejoaov/cadweb-api/internal/kafka"
	"github.com/thejoaov/cadweb-api/internal/postgres"
	"github.com/thejoaov/cadweb-api/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()
	// Idempotent; lets the worker boot before the API.
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &invoices.Service{
		Repo:        &invoices.Repo{DB: db},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-worker",
	}

	group := getenv("WORKER_GROUP", "cadweb-worker")
	workers := mustAtoi(os.Getenv("WORKER_COUNT"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, events.TopicOrderStatus, workers)

	go func() {
		log.Info().
			Str("group", group).
			Str("topic", events.TopicOrderStatus).
			Int("workers", workers).
			Msg("worker consumer started")
		if err := cons.Start(ctx, svc.HandleOrderStatus); err != nil {
			log.Error().Err(err).Msg("consumer exit")
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Warn().Msg("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
