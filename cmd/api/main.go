package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thejoaov/cadweb-api/internal/auth"
	"github.com/thejoaov/cadweb-api/internal/config"
	"github.com/thejoaov/cadweb-api/internal/events"
	"github.com/thejoaov/cadweb-api/internal/httpx"
	kafkax "github.com/thejoaov/cadweb-api/internal/kafka"
	"github.com/thejoaov/cadweb-api/internal/orders"
	"github.com/thejoaov/cadweb-api/internal/payments"
	"github.com/thejoaov/cadweb-api/internal/pix"
	"github.com/thejoaov/cadweb-api/internal/postgres"
	"github.com/thejoaov/cadweb-api/internal/products"
	"github.com/thejoaov/cadweb-api/internal/redisx"
	"github.com/thejoaov/cadweb-api/internal/users"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicOrderCreated, 1024)
	pCreated.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicOrderStatus, 1024)
	pStatus.Start(ctx)
	pPayment := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicPaymentReceived, 1024)
	pPayment.Start(ctx)

	// Repos
	orderRepo := &orders.Repo{DB: db}
	productRepo := &products.Repo{DB: db}
	userRepo := &users.Repo{DB: db}
	paymentRepo := &payments.Repo{DB: db}
	pixRepo := &pix.Repo{DB: db}

	// Handlers
	oh := &httpx.OrdersHandler{
		Store:         orderRepo,
		CreatedEvents: pCreated,
		StatusEvents:  pStatus,
		Redis:         rdb,
		Service:       cfg.ServiceName,
	}
	ph := &httpx.ProductsHandler{Store: productRepo}
	uh := &httpx.UsersHandler{Store: userRepo}
	payh := &httpx.PaymentsHandler{Store: paymentRepo, Events: pPayment, Service: cfg.ServiceName}
	pixh := &httpx.PixHandler{Store: pixRepo}
	dh := &httpx.DashboardHandler{Users: userRepo, Products: productRepo, Orders: orderRepo}

	router := httpx.NewRouter(cfg.CORSOrigins)

	// Public surface: the simulated payer page and the storefront product view.
	pixh.RegisterPublic(router)
	ph.RegisterPublic(router)

	// Everything else requires a provider session.
	verifier := auth.NewClient(cfg.AuthURL, cfg.AuthAnonKey)
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier, rdb))
		oh.Register(r)
		ph.Register(r)
		uh.Register(r)
		payh.Register(r)
		pixh.Register(r)
		dh.Register(r)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Warn().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	// Close inboxes so the loops flush, then stop them and drain.
	pCreated.Close()
	pStatus.Close()
	pPayment.Close()
	cancel()
	pCreated.WaitClosed()
	pStatus.WaitClosed()
	pPayment.WaitClosed()
}
