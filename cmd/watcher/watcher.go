package main

import (
	"log"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/matst80/slask-grocery/pkg/common"
	"github.com/matst80/slask-grocery/pkg/messaging"
	"github.com/matst80/slask-grocery/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskgrocery_watcher_events_total",
		Help: "Item events received by topic",
	}, []string{"topic"})
	lowStockItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slaskgrocery_watcher_low_stock_items",
		Help: "Items currently at or below the low stock threshold",
	})
)

type Alert struct {
	Id       types.ItemId `json:"id"`
	Name     string       `json:"name"`
	Quantity int          `json:"quantity"`
	Expiry   string       `json:"expiry,omitempty"`
}

// ItemWatcher tracks the latest state of every item it has seen on the
// change topics.
type ItemWatcher struct {
	mu        sync.RWMutex
	Items     map[types.ItemId]types.ItemView
	Threshold int
	now       func() time.Time
}

func NewItemWatcher(threshold int) *ItemWatcher {
	return &ItemWatcher{
		Items:     make(map[types.ItemId]types.ItemView),
		Threshold: threshold,
		now:       time.Now,
	}
}

func (w *ItemWatcher) HandleEvent(event *messaging.ItemEvent) error {
	eventsReceived.WithLabelValues(string(event.Type)).Inc()
	w.mu.Lock()
	defer w.mu.Unlock()
	defer func() {
		lowStockItems.Set(float64(w.lowStockCountUnsafe()))
	}()

	if event.Type == messaging.ItemDeleted || event.Item == nil {
		delete(w.Items, event.Id)
		log.Printf("item %d deleted", event.Id)
		return nil
	}

	item := *event.Item
	previous, seen := w.Items[item.Id]
	w.Items[item.Id] = item

	if item.Quantity <= w.Threshold && (!seen || previous.Quantity > w.Threshold || previous.Quantity != item.Quantity) {
		log.Printf("low stock: %s (%d) has %d left", item.Name, item.Id, item.Quantity)
	}
	if item.Perishable {
		if days, ok := w.daysLeft(item); ok {
			log.Printf("%s (%d) expires %s, %d days left", item.Name, item.Id, item.Expiry, days)
		}
	}
	return nil
}

func (w *ItemWatcher) daysLeft(item types.ItemView) (int, bool) {
	expiry, err := time.Parse(types.ExpiryLayout, item.Expiry)
	if err != nil {
		return 0, false
	}
	now := w.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(expiry.Sub(today).Hours() / 24), true
}

func (w *ItemWatcher) lowStockCountUnsafe() int {
	count := 0
	for _, item := range w.Items {
		if item.Quantity <= w.Threshold {
			count++
		}
	}
	return count
}

// Alerts lists low stock items and perishables expiring within days, ordered by id.
func (w *ItemWatcher) Alerts(days int) (lowStock []Alert, expiring []Alert) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	lowStock = make([]Alert, 0)
	expiring = make([]Alert, 0)
	for _, item := range w.Items {
		alert := Alert{Id: item.Id, Name: item.Name, Quantity: item.Quantity, Expiry: item.Expiry}
		if item.Quantity <= w.Threshold {
			lowStock = append(lowStock, alert)
		}
		if left, ok := w.daysLeft(item); ok && item.Perishable && left >= 0 && left <= days {
			expiring = append(expiring, alert)
		}
	}
	byId := func(a, b Alert) int { return int(a.Id) - int(b.Id) }
	slices.SortFunc(lowStock, byId)
	slices.SortFunc(expiring, byId)
	return lowStock, expiring
}

type AlertsResponse struct {
	LowStock []Alert `json:"low_stock"`
	Expiring []Alert `json:"expiring"`
}

func (w *ItemWatcher) GetAlerts(rw http.ResponseWriter, r *http.Request) {
	lowStock, expiring := w.Alerts(3)
	common.WriteJson(rw, http.StatusOK, AlertsResponse{LowStock: lowStock, Expiring: expiring})
}
