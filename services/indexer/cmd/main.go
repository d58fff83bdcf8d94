package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/getlisted/platform/libs/components/directory"
	"github.com/getlisted/platform/libs/shared/config"
	"github.com/getlisted/platform/libs/shared/database"
	"github.com/getlisted/platform/libs/shared/httpx"
	"github.com/getlisted/platform/libs/shared/logging"
	"github.com/getlisted/platform/libs/shared/mq"
	"github.com/getlisted/platform/libs/shared/observability"
)

const (
	requestTimeout = 15 * time.Second
	shutdownGrace  = 5 * time.Second
)

func main() {
	cfg := config.Load()
	log := logging.MustNew("indexer", cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectWithDSN("indexer", cfg.DatabaseDSN("indexer"), log)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}
	if err := directory.Migrate(db); err != nil {
		log.Fatal("directory migration failed", zap.Error(err))
	}

	repo := directory.NewGormRepository(db)
	indexer := directory.NewIndexer(repo, log)

	consumer, err := mq.NewConsumer(mq.ConsumerConfig{
		Brokers:  cfg.KafkaBrokerList(),
		Topic:    cfg.KafkaTopic,
		GroupID:  "directory-indexer",
		ClientID: "getlisted-indexer",
	}, indexer.HandleMessage, log)
	if err != nil {
		log.Fatal("failed to create consumer", zap.Error(err))
	}
	defer consumer.Close()

	srv := httpx.New()
	srv.Router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	observability.RegisterMetricsEndpoint(srv.Router)
	directory.NewHandler(repo).Mount(srv.Router, "/directory")

	addr := fmt.Sprintf(":%s", cfg.ResolveServiceHTTPPort("indexer", "8082"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("indexer consuming", zap.String("topic", cfg.KafkaTopic))
		if err := consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("indexer listening", zap.String("addr", addr))
		if err := srv.Start(addr, requestTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return srv.Shutdown(context.Background(), shutdownGrace)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("indexer stopped", zap.Error(err))
	}
	log.Info("indexer stopped")
}
