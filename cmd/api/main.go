package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-bookstore.git/internal/accounts"
	"github.com/ariefcatur/go-bookstore.git/internal/admin"
	"github.com/ariefcatur/go-bookstore.git/internal/auth"
	"github.com/ariefcatur/go-bookstore.git/internal/cart"
	"github.com/ariefcatur/go-bookstore.git/internal/catalog"
	"github.com/ariefcatur/go-bookstore.git/internal/config"
	"github.com/ariefcatur/go-bookstore.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-bookstore.git/internal/kafka"
	"github.com/ariefcatur/go-bookstore.git/internal/logging"
	"github.com/ariefcatur/go-bookstore.git/internal/media"
	"github.com/ariefcatur/go-bookstore.git/internal/orders"
	"github.com/ariefcatur/go-bookstore.git/internal/postgres"
	"github.com/ariefcatur/go-bookstore.git/internal/redisx"
	"github.com/ariefcatur/go-bookstore.git/internal/reviews"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.ServiceName)
	decimal.MarshalJSONWithoutQuotes = true

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

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, cfg.OrdersTopic, 1024, log)
	prod.Start()

	images, err := media.New(cfg.CloudinaryURL, cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		log.WithError(err).Fatal("media")
	}
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiresIn)

	// Services
	accountSvc := &accounts.Service{Store: &accounts.Repo{DB: db}, Tokens: tokens}
	catalogSvc := &catalog.Service{Store: &catalog.Repo{DB: db}, Sellers: accountSvc, Images: images}
	cartSvc := &cart.Service{Store: &cart.Repo{DB: db}, Books: catalogSvc}
	reviewSvc := &reviews.Service{Store: &reviews.Repo{DB: db}, Books: catalogSvc}
	orderSvc := &orders.Service{
		Store:       &orders.Repo{DB: db},
		Users:       accountSvc,
		Books:       catalogSvc,
		Carts:       cartSvc,
		Idem:        &redisx.Idempotency{RDB: rdb, TTL: redisx.TTLIdempotency},
		Events:      prod,
		Log:         log,
		ServiceName: cfg.ServiceName,
	}
	adminSvc := &admin.Service{Accounts: accountSvc, Books: catalogSvc, Orders: orderSvc}

	// Routes
	router := httpx.NewRouter(log)
	router.Route("/api", func(r chi.Router) {
		(&httpx.AuthHandler{Accounts: accountSvc, Log: log}).Register(r)
		(&httpx.UserHandler{
			Tokens:   tokens,
			Profiles: accountSvc,
			Books:    catalogSvc,
			Reviews:  reviewSvc,
			Carts:    cartSvc,
			Orders:   orderSvc,
			Log:      log,
		}).Register(r)
		(&httpx.SellerHandler{Tokens: tokens, Books: catalogSvc, Orders: orderSvc, Log: log}).Register(r)
		(&httpx.AdminHandler{
			Tokens:    tokens,
			Accounts:  accountSvc,
			Dashboard: adminSvc,
			Books:     catalogSvc,
			Orders:    orderSvc,
			Log:       log,
		}).Register(r)
	})
	if cfg.CloudinaryURL == "" {
		router.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", httpx.HeaderIdempotencyKey}),
		handlers.AllowCredentials(),
	)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: cors(router), ReadHeaderTimeout: 5 * time.Second}

	// graceful shutdown
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	prod.Close()
	prod.WaitClosed()
	cancel()
}
