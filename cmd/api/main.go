package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/checkout"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/config"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-marketplace-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/logging"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/market"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/payments"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/postgres"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/redisx"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/stock"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.ServiceName)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	created := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderCreated, 1024, log)
	paid := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderPaid, 1024, log)
	cancelled := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderCancelled, 1024, log)
	created.Start(ctx)
	paid.Start(ctx)
	cancelled.Start(ctx)

	// TODO: swap the sandbox for the real gateway client once its Go SDK is wired.
	processor := payments.NewSandbox(cfg.WebhookSecret)

	svc := &checkout.Service{
		Store:          &market.Repo{DB: db},
		Res:            stock.NewReservations(stock.NewRedis(rdb)),
		Bridge:         &payments.Bridge{Processor: processor, Currency: cfg.Currency, Log: log},
		Log:            log,
		Created:        created,
		Paid:           paid,
		Cancelled:      cancelled,
		ServiceName:    cfg.ServiceName,
		ExpiryDeadline: cfg.ExpiryDeadline,
	}

	validate := validator.New()
	router := httpx.NewRouter()
	(&httpx.CartHandler{Svc: svc, Validate: validate}).Register(router)
	(&httpx.OrdersHandler{Svc: svc, Validate: validate}).Register(router)
	(&httpx.WebhookHandler{Svc: svc, Processor: processor, Log: log}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	for _, p := range []*kafkax.Producer{created, paid, cancelled} {
		p.Close() // close inbox, flush remaining messages
	}
	cancel()
	for _, p := range []*kafkax.Producer{created, paid, cancelled} {
		p.WaitClosed()
	}
}
