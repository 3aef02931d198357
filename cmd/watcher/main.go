package main

import (
	"context"
	"log"
	"net/http"

	"github.com/matst80/slask-grocery/pkg/common"
	"github.com/matst80/slask-grocery/pkg/config"
	"github.com/matst80/slask-grocery/pkg/messaging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	config.LoadDotEnv()
	cfg := config.FromEnv()
	if cfg.RabbitUrl == "" {
		log.Fatal("RABBIT_URL environment variable is not set")
	}

	conn, err := amqp.DialConfig(cfg.RabbitUrl, amqp.Config{
		Properties: amqp.NewConnectionProperties(),
	})
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	if err := messaging.DefineTopics(conn, cfg.Country, messaging.AllTopics...); err != nil {
		log.Fatalf("Failed to define item topics: %v", err)
	}

	watcher := NewItemWatcher(cfg.LowStockThreshold)
	if err := messaging.ListenToItemEvents(conn, cfg.Country, watcher.HandleEvent); err != nil {
		log.Fatalf("Failed to start listening to item topics: %v", err)
	}
	log.Printf("Watching item changes for %s, low stock threshold %d", cfg.Country, cfg.LowStockThreshold)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /alerts", watcher.GetAlerts)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if conn.IsClosed() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	timeouts := common.LoadTimeoutConfig(common.DefaultTimeouts())
	server := common.NewServerWithTimeouts(cfg.ListenAddress, mux, timeouts)
	common.RunServersWithShutdown("item watcher", timeouts, []*http.Server{server}, func(context.Context) error {
		return conn.Close()
	})
}
