package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/matst80/slask-grocery/pkg/cache"
	"github.com/matst80/slask-grocery/pkg/common"
	"github.com/matst80/slask-grocery/pkg/config"
	"github.com/matst80/slask-grocery/pkg/inventory"
	"github.com/matst80/slask-grocery/pkg/messaging"
	"github.com/matst80/slask-grocery/pkg/server"
)

var enableProfiling = flag.Bool("profiling", true, "enable profiling endpoints")

var ready atomic.Bool

func main() {
	flag.Parse()
	config.LoadDotEnv()
	cfg := config.FromEnv()
	timeouts := common.LoadTimeoutConfig(common.DefaultTimeouts())

	store := inventory.NewStoreWithSampleData()
	log.Printf("Loaded %d sample items", store.Count())

	hooks := make([]common.ShutdownHook, 0)
	opts := []server.Option{server.WithLowStockThreshold(cfg.LowStockThreshold)}

	if cfg.RedisUrl != "" {
		c := cache.NewCache(cfg.RedisUrl, cfg.RedisPassword, 0)
		if err := c.Ping(context.Background()); err != nil {
			log.Printf("Redis not reachable at %s, responses will not be cached: %v", cfg.RedisUrl, err)
			_ = c.Close()
		} else {
			log.Printf("Response cache enabled, url: %s", cfg.RedisUrl)
			opts = append(opts, server.WithCache(c, cfg.CacheTTL))
			stopPruning := c.StartPruning(cfg.CacheTTL)
			hooks = append(hooks, func(context.Context) error {
				stopPruning()
				return c.Close()
			})
		}
	}

	if cfg.RabbitUrl != "" {
		conn, err := amqp.Dial(cfg.RabbitUrl)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		handler, err := messaging.NewRabbitChangeHandler(conn, cfg.Country)
		if err != nil {
			log.Fatalf("Failed to define item topics: %v", err)
		}
		store.ChangeHandler = handler
		log.Printf("Publishing item changes with prefix %s", cfg.Country)
		hooks = append(hooks, func(context.Context) error {
			handler.Close()
			return conn.Close()
		})
	}

	srv := server.NewWebServer(store, opts...)

	debugMux := http.NewServeMux()
	debugMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if !ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	debugMux.Handle("/metrics", promhttp.Handler())

	if enableProfiling != nil && *enableProfiling {
		log.Println("Profiling enabled")
		debugMux.HandleFunc("/debug/pprof/", pprof.Index)
		debugMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		debugMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		debugMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		debugMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	servers := []*http.Server{
		common.NewServerWithTimeouts(cfg.ListenAddress, srv.Handle(), timeouts),
		common.NewServerWithTimeouts(cfg.DebugAddress, debugMux, timeouts),
	}
	hooks = append([]common.ShutdownHook{func(context.Context) error {
		ready.Store(false)
		return nil
	}}, hooks...)

	ready.Store(true)
	common.RunServersWithShutdown("grocery api", timeouts, servers, hooks...)
}
