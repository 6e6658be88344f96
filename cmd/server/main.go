// Path: cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"food-explorer/internal/cart"
	"food-explorer/internal/catalog"
	"food-explorer/internal/config"
	"food-explorer/internal/delivery/rest"
	"food-explorer/internal/delivery/ui"
	"food-explorer/internal/events"
	"food-explorer/internal/offclient"
	"food-explorer/internal/search"
	"food-explorer/internal/session"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	})
	log.SetOutput(os.Stdout)

	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	// 2. Setup Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize Components
	log.Info("initializing components")
	broker := events.NewBroker()
	client := offclient.NewClient(cfg.Client)

	cats := catalog.New(client, log)
	go func() {
		loadCtx, loadCancel := context.WithTimeout(ctx, 2*cfg.Client.Timeout)
		defer loadCancel()
		cats.Load(loadCtx)
	}()

	sessions := session.NewManager(cfg.Session, func() (*search.Controller, *cart.Controller) {
		return search.NewController(client, cfg.Client.FullPageThreshold, log, broker),
			cart.NewController(cfg.Checkout.Delay, broker)
	}, log)

	// 4. Log controller events in the background
	go logEvents(ctx, broker, log)

	// 5. Build the HTTP surface: JSON API + server-rendered UI on one router
	router := mux.NewRouter()
	rest.NewHandlers(sessions, cats, client, log).RegisterRoutes(router)
	ui.NewHandlers(sessions, cats, client, log).RegisterRoutes(router)

	server := rest.NewServer(cfg.Server.Port, router, log)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("server starting")
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	// 6. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutdown signal received, shutting down gracefully")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("error during server shutdown")
	}
	sessions.Stop()

	log.Info("server shut down successfully")
}

// logEvents subscribes to the controller topics and emits one log line per
// event.
func logEvents(ctx context.Context, broker *events.Broker, log logrus.FieldLogger) {
	searches := broker.Subscribe(events.TopicSearchCompleted)
	carts := broker.Subscribe(events.TopicCartUpdated)
	checkouts := broker.Subscribe(events.TopicCheckoutPlaced)

	for {
		select {
		case ev := <-searches:
			log.WithField("results", ev.Data).Debug("search completed")
		case ev := <-carts:
			log.WithField("total_items", ev.Data).Debug("cart updated")
		case ev := <-checkouts:
			log.WithField("total_items", ev.Data).Info("checkout placed")
		case <-ctx.Done():
			return
		}
	}
}
