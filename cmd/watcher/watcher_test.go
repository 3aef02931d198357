package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matst80/slask-grocery/pkg/messaging"
	"github.com/matst80/slask-grocery/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func view(id types.ItemId, name string, quantity int, expiry string) *types.ItemView {
	return &types.ItemView{
		Id:         id,
		Name:       name,
		Category:   "Dairy",
		Price:      types.NewPrice(decimal.NewFromInt(10)),
		Quantity:   quantity,
		Perishable: expiry != "",
		Expiry:     expiry,
	}
}

func newTestWatcher() *ItemWatcher {
	w := NewItemWatcher(5)
	w.now = func() time.Time { return time.Date(2025, 11, 11, 15, 0, 0, 0, time.UTC) }
	return w
}

func TestWatcherTracksEvents(t *testing.T) {
	w := newTestWatcher()
	require.NoError(t, w.HandleEvent(&messaging.ItemEvent{Type: messaging.ItemAdded, Id: 1, Item: view(1, "Milk", 25, "2025-11-12")}))
	require.NoError(t, w.HandleEvent(&messaging.ItemEvent{Type: messaging.ItemAdded, Id: 2, Item: view(2, "Tea", 5, "")}))
	require.NoError(t, w.HandleEvent(&messaging.ItemEvent{Type: messaging.ItemAdded, Id: 3, Item: view(3, "Mangoes", 15, "2025-11-20")}))
	require.NoError(t, w.HandleEvent(&messaging.ItemEvent{Type: messaging.ItemChanged, Id: 1, Item: view(1, "Milk", 3, "2025-11-12")}))

	lowStock, expiring := w.Alerts(3)
	require.Len(t, lowStock, 2)
	assert.Equal(t, types.ItemId(1), lowStock[0].Id)
	assert.Equal(t, 3, lowStock[0].Quantity)
	assert.Equal(t, types.ItemId(2), lowStock[1].Id)
	require.Len(t, expiring, 1)
	assert.Equal(t, "Milk", expiring[0].Name)

	require.NoError(t, w.HandleEvent(&messaging.ItemEvent{Type: messaging.ItemDeleted, Id: 1}))
	lowStock, expiring = w.Alerts(3)
	assert.Len(t, lowStock, 1)
	assert.Empty(t, expiring)
}

func TestGetAlerts(t *testing.T) {
	w := newTestWatcher()
	require.NoError(t, w.HandleEvent(&messaging.ItemEvent{Type: messaging.ItemAdded, Id: 7, Item: view(7, "Yogurt", 3, "2025-11-14")}))

	rec := httptest.NewRecorder()
	w.GetAlerts(rec, httptest.NewRequest(http.MethodGet, "/alerts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"low_stock":[{"id":7,"name":"Yogurt","quantity":3,"expiry":"2025-11-14"}],"expiring":[{"id":7,"name":"Yogurt","quantity":3,"expiry":"2025-11-14"}]}`, rec.Body.String())
}
