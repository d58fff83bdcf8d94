package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/getlisted/platform/libs/components/backend"
	"github.com/getlisted/platform/libs/components/deck"
	"github.com/getlisted/platform/libs/components/listing"
	"github.com/getlisted/platform/libs/shared/logging"
	"github.com/getlisted/platform/libs/shared/messaging"
	"github.com/getlisted/platform/libs/shared/mq"
	"github.com/getlisted/platform/libs/shared/session"
	"github.com/getlisted/platform/services/web/internal/config"
	"github.com/getlisted/platform/services/web/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	log := logging.MustNew("web", cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var events messaging.Publisher = messaging.Discard{}
	if cfg.EventsEnabled {
		producer, err := mq.NewProducer(mq.ProducerConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaTopic,
			ClientID: "getlisted-web",
		}, log)
		if err != nil {
			log.Fatal("event producer unavailable", zap.Error(err))
		}
		defer producer.Close()
		events = messaging.NewKafkaPublisher(producer)
	}

	forms := session.NewStore[*listing.Form](cfg.SessionTTL, cfg.SessionSweep)
	defer forms.Close()
	decks := session.NewStore[*deck.Reconciler](cfg.SessionTTL, cfg.SessionSweep)
	defer decks.Close()

	srv := server.New(cfg, server.Deps{
		Backend: backend.New(cfg.BackendURL, cfg.BackendTimeout, log),
		Events:  events,
		Forms:   forms,
		Decks:   decks,
		Log:     log,
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	errs := make(chan error, 1)
	go func() {
		log.Info("web listening", zap.String("addr", addr), zap.String("backend", cfg.BackendURL))
		// Writes must outlive the per-request timeout so it can answer first.
		errs <- srv.Start(addr, cfg.RequestTimeout+cfg.BackendTimeout)
	}()

	select {
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down web")
	}

	if err := srv.Shutdown(context.Background(), cfg.ShutdownGracePeriod); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
	}
}
