package common

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
)

// ShutdownHook runs after a termination signal and before the servers shut
// down. Errors are logged and shutdown continues.
type ShutdownHook func(ctx context.Context) error

// RunServersWithShutdown starts every server and blocks until SIGINT or SIGTERM.
// Hooks then run in order, each within cfg.Hook, and the servers are shut down
// within cfg.Shutdown.
func RunServersWithShutdown(name string, cfg TimeoutConfig, servers []*http.Server, hooks ...ShutdownHook) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := ServeUntil(ctx, name, cfg, servers, hooks...); err != nil {
		log.Fatalf("%s: %v", name, err)
	}
}

// ServeUntil is RunServersWithShutdown with the stop signal replaced by ctx.
// It returns the first listen error, or nil after a clean shutdown.
func ServeUntil(ctx context.Context, name string, cfg TimeoutConfig, servers []*http.Server, hooks ...ShutdownHook) error {
	if cfg.Hook <= 0 {
		cfg.Hook = 5 * time.Second
	}
	if cfg.Shutdown <= 0 {
		cfg.Shutdown = 15 * time.Second
	}

	failed := make(chan error, len(servers))
	for _, server := range servers {
		go func(server *http.Server) {
			log.Printf("starting %s on %s", name, server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				failed <- err
			}
		}(server)
	}

	var listenErr error
	select {
	case <-ctx.Done():
		log.Printf("shutdown signal received for %s", name)
	case listenErr = <-failed:
		log.Printf("%s listen error: %v", name, listenErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown)
	defer cancel()

	for i, h := range hooks {
		if h == nil {
			continue
		}
		hCtx, hCancel := context.WithTimeout(shutdownCtx, cfg.Hook)
		if err := h(hCtx); err != nil {
			log.Printf("shutdown hook %d failed: %v", i, err)
		}
		if errors.Is(hCtx.Err(), context.DeadlineExceeded) {
			log.Printf("shutdown hook %d timed out", i)
		}
		hCancel()
	}

	for _, server := range servers {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("graceful shutdown of %s failed: %v", server.Addr, err)
		}
	}
	log.Printf("%s shutdown complete", name)
	return listenErr
}

type TimeoutConfig struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
	Shutdown   time.Duration
	Hook       time.Duration
}

func DefaultTimeouts() TimeoutConfig {
	return TimeoutConfig{
		ReadHeader: 5 * time.Second,
		Read:       15 * time.Second,
		Write:      30 * time.Second,
		Idle:       60 * time.Second,
		Shutdown:   15 * time.Second,
		Hook:       5 * time.Second,
	}
}

// LoadTimeoutConfig overrides the defaults with whole seconds from
// READ_HEADER_TIMEOUT, READ_TIMEOUT, WRITE_TIMEOUT, IDLE_TIMEOUT,
// SHUTDOWN_TIMEOUT and HOOK_TIMEOUT. Invalid or non-positive values are ignored.
func LoadTimeoutConfig(defaults TimeoutConfig) TimeoutConfig {
	apply := func(curr *time.Duration, env string) {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*curr = time.Duration(n) * time.Second
			}
		}
	}
	apply(&defaults.ReadHeader, "READ_HEADER_TIMEOUT")
	apply(&defaults.Read, "READ_TIMEOUT")
	apply(&defaults.Write, "WRITE_TIMEOUT")
	apply(&defaults.Idle, "IDLE_TIMEOUT")
	apply(&defaults.Shutdown, "SHUTDOWN_TIMEOUT")
	apply(&defaults.Hook, "HOOK_TIMEOUT")
	return defaults
}

func NewServerWithTimeouts(addr string, handler http.Handler, cfg TimeoutConfig) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeader,
		ReadTimeout:       cfg.Read,
		WriteTimeout:      cfg.Write,
		IdleTimeout:       cfg.Idle,
	}
}
