package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/config"
	kafkax "github.com/ariefcatur/go-marketplace-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/logging"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/market"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/notify"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/redisx"
)

// The notifier consumes order lifecycle events and delivers buyer
// notifications, deduplicating by event id so redelivered messages notify once.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New("checkout-notifier")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notify.Service{Redis: rdb, Log: log}

	paid := kafkax.NewConsumer(cfg.KafkaBrokers, "notifier", market.TopicOrderPaid, 4, log)
	cancelled := kafkax.NewConsumer(cfg.KafkaBrokers, "notifier", market.TopicOrderCancelled, 4, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return paid.Start(gctx, svc.HandleOrderPaid) })
	g.Go(func() error { return cancelled.Start(gctx, svc.HandleOrderCancelled) })

	log.Info("notifier running", "brokers", cfg.KafkaBrokers)
	if err := g.Wait(); err != nil {
		log.Error("consumer stopped", "err", err)
		os.Exit(1)
	}
	log.Info("shutting down")
}
