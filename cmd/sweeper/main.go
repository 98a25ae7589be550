package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/checkout"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/config"
	kafkax "github.com/ariefcatur/go-marketplace-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/logging"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/market"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/postgres"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/redisx"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/stock"
)

// The sweeper runs the two periodic jobs: expiring unpaid orders past their
// deadline and rebuilding reservation counters from durable state. It never
// creates orders, so it carries only the cancelled-topic producer.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New("checkout-sweeper")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// the producer outlives the signal context so queued events still flush
	// during shutdown
	prodCtx, prodCancel := context.WithCancel(context.Background())
	defer prodCancel()
	cancelled := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderCancelled, 256, log)
	cancelled.Start(prodCtx)

	svc := &checkout.Service{
		Store:          &market.Repo{DB: db},
		Res:            stock.NewReservations(stock.NewRedis(rdb)),
		Log:            log,
		Cancelled:      cancelled,
		ServiceName:    "checkout-sweeper",
		ExpiryDeadline: cfg.ExpiryDeadline,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return every(gctx, cfg.ExpiryInterval, func(c context.Context) {
			if err := svc.SweepExpired(c); err != nil {
				log.Error("expiry sweep", "err", err)
			}
		})
	})
	g.Go(func() error {
		return every(gctx, cfg.ReconcileInterval, func(c context.Context) {
			if err := svc.SweepReconcile(c); err != nil {
				log.Error("reconcile sweep", "err", err)
			}
		})
	})

	log.Info("sweeper running",
		"expiry_interval", cfg.ExpiryInterval.String(),
		"reconcile_interval", cfg.ReconcileInterval.String(),
	)
	_ = g.Wait()

	log.Info("shutting down")
	cancelled.Close()
	cancelled.WaitClosed()
}

// every runs fn immediately and then on each tick until ctx is cancelled.
func every(ctx context.Context, interval time.Duration, fn func(context.Context)) error {
	fn(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			fn(ctx)
		}
	}
}
