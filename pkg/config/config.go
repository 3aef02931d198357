package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddress     string
	DebugAddress      string
	Country           string
	RedisUrl          string
	RedisPassword     string
	RabbitUrl         string
	LowStockThreshold int
	CacheTTL          time.Duration
}

func Default() Config {
	return Config{
		ListenAddress:     ":8080",
		DebugAddress:      ":8081",
		Country:           "in",
		LowStockThreshold: 5,
		CacheTTL:          time.Minute,
	}
}

// LoadDotEnv reads a .env file outside production. A missing file is not an error.
func LoadDotEnv(filenames ...string) {
	if os.Getenv("ENV") == "production" {
		return
	}
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, f := range filenames {
		if err := godotenv.Load(f); err != nil {
			if !os.IsNotExist(err) {
				log.Printf("could not load %s: %v", f, err)
			}
			continue
		}
		log.Printf("loaded environment from %s", f)
	}
}

// FromEnv overrides the defaults with environment variables.
func FromEnv() Config {
	return fromLookup(Default(), os.LookupEnv)
}

func fromLookup(cfg Config, lookup func(string) (string, bool)) Config {
	str := func(curr *string, keys ...string) {
		for _, key := range keys {
			if v, ok := lookup(key); ok && v != "" {
				*curr = v
				return
			}
		}
	}
	str(&cfg.ListenAddress, "LISTEN_ADDRESS")
	if port, ok := lookup("PORT"); ok && port != "" {
		if port[0] != ':' {
			port = ":" + port
		}
		cfg.ListenAddress = port
	}
	str(&cfg.DebugAddress, "DEBUG_ADDRESS")
	str(&cfg.Country, "COUNTRY")
	str(&cfg.RedisUrl, "REDIS_URL")
	str(&cfg.RedisPassword, "REDIS_PASSWORD")
	str(&cfg.RabbitUrl, "RABBIT_URL", "RABBIT_HOST")

	if v, ok := lookup("LOW_STOCK_THRESHOLD"); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.LowStockThreshold = n
		}
	}
	if v, ok := lookup("CACHE_TTL_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheTTL = time.Duration(n) * time.Second
		}
	}
	return cfg
}
