package server

import (
	"net/http"
	"time"

	"github.com/matst80/slask-grocery/pkg/billing"
	"github.com/matst80/slask-grocery/pkg/cache"
	"github.com/matst80/slask-grocery/pkg/common"
	"github.com/matst80/slask-grocery/pkg/inventory"
	"github.com/matst80/slask-grocery/pkg/types"
	"github.com/shopspring/decimal"
)

type WebServer struct {
	Store             *inventory.Store
	ListCache         *cache.CacheHelper[[]types.ItemView]
	LowStockThreshold int
	TaxPercent        decimal.Decimal
	DiscountPercent   decimal.Decimal
	now               func() time.Time
}

type Option func(*WebServer)

// WithCache caches list responses for ttl. Entries are keyed by the store
// version so any mutation makes them unreachable.
func WithCache(c *cache.Cache, ttl time.Duration) Option {
	return func(ws *WebServer) {
		if c != nil {
			ws.ListCache = cache.NewCacheHelper[[]types.ItemView](c, ttl)
		}
	}
}

func WithLowStockThreshold(threshold int) Option {
	return func(ws *WebServer) {
		ws.LowStockThreshold = threshold
	}
}

func WithClock(now func() time.Time) Option {
	return func(ws *WebServer) {
		ws.now = now
	}
}

func NewWebServer(store *inventory.Store, opts ...Option) *WebServer {
	ws := &WebServer{
		Store:             store,
		LowStockThreshold: 5,
		TaxPercent:        billing.DefaultTaxPercent,
		DiscountPercent:   billing.DefaultDiscountPercent,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(ws)
	}
	return ws
}

// Handle returns the api mux wrapped with CORS and request logging.
func (ws *WebServer) Handle() http.Handler {
	srv := http.NewServeMux()
	srv.HandleFunc("GET /api/health", ws.Health)
	srv.HandleFunc("GET /api/items", ws.ListItems)
	srv.HandleFunc("POST /api/items", ws.CreateItem)
	srv.HandleFunc("GET /api/items/{id}", ws.GetItem)
	srv.HandleFunc("PUT /api/items/{id}", ws.UpdateItem)
	srv.HandleFunc("DELETE /api/items/{id}", ws.DeleteItem)
	srv.HandleFunc("POST /api/items/{id}/stock", ws.AdjustStock)
	srv.HandleFunc("GET /api/search/name/{query}", ws.SearchByName)
	srv.HandleFunc("GET /api/search/name/{$}", ws.SearchByName)
	srv.HandleFunc("GET /api/search/category/{category}", ws.SearchByCategory)
	srv.HandleFunc("GET /api/low-stock", ws.LowStock)
	srv.HandleFunc("GET /api/expiry/{days}", ws.Expiring)
	srv.HandleFunc("POST /api/bill", ws.Bill)
	return common.Cors(RequestLogger(srv))
}
