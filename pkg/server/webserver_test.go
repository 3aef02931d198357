package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matst80/slask-grocery/pkg/cache"
	"github.com/matst80/slask-grocery/pkg/inventory"
	"github.com/matst80/slask-grocery/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 11, 11, 10, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts ...Option) (*inventory.Store, http.Handler) {
	t.Helper()
	store := inventory.NewStoreWithSampleData()
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return store, NewWebServer(store, opts...).Handle()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func names(items []types.ItemView) []string {
	res := make([]string, 0, len(items))
	for _, item := range items {
		res = append(res, item.Name)
	}
	return res
}

func TestListItems(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get(RequestIdHeader))

	items := decode[[]types.ItemView](t, rec)
	require.Len(t, items, 20)
	assert.Equal(t, types.ItemId(1), items[0].Id)
	assert.Equal(t, "Alphonso Mangoes (Maharashtra)", items[0].Name)
	assert.Contains(t, rec.Body.String(), `"price":180.00`)
}

func TestRenderedFields(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/items/3", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"id", "name", "category", "price", "quantity", "perishable", "expiry"}, keys)
	assert.Equal(t, false, raw["perishable"])
	assert.Equal(t, "", raw["expiry"])
}

func TestGetItemErrors(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/items/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.False(t, body.Success)
	assert.Contains(t, body.Error, "not found")

	rec = do(t, h, http.MethodGet, "/api/items/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateItem(t *testing.T) {
	store, h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/api/items", `{"name":"Ghee","category":"Dairy","price":650.5,"quantity":7,"perishable":true,"expiry":"2026-01-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	res := decode[ItemResponse](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, "Item added successfully", res.Message)
	require.NotNil(t, res.Item)
	assert.Equal(t, types.ItemId(21), res.Item.Id)
	assert.Equal(t, "650.50", res.Item.Price.StringFixed(2))
	assert.Equal(t, "2026-01-01", res.Item.Expiry)
	assert.Equal(t, 21, store.Count())
}

func TestCreateItemValidation(t *testing.T) {
	store, h := newTestServer(t)
	cases := map[string]string{
		"malformed":          `{"name":`,
		"perishable expiry":  `{"name":"Curd","category":"Dairy","price":30,"quantity":1,"perishable":true}`,
		"negative price":     `{"name":"Curd","category":"Dairy","price":-1,"quantity":1}`,
		"negative quantity":  `{"name":"Curd","category":"Dairy","price":1,"quantity":-1}`,
		"blank name":         `{"name":"  ","category":"Dairy","price":1,"quantity":1}`,
		"unparseable price":  `{"name":"Curd","category":"Dairy","price":"cheap","quantity":1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/items", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, decode[ErrorResponse](t, rec).Success)
		})
	}
	assert.Equal(t, 20, store.Count())
}

func TestUpdateItem(t *testing.T) {
	store, h := newTestServer(t)
	rec := do(t, h, http.MethodPut, "/api/items/2", `{"price":60,"quantity":30}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[ItemResponse](t, rec)
	assert.Equal(t, "Item updated successfully", res.Message)
	assert.Equal(t, "Amul Whole Milk", res.Item.Name)
	assert.Equal(t, "60.00", res.Item.Price.StringFixed(2))
	assert.Equal(t, 30, res.Item.Quantity)
	assert.Equal(t, "2025-11-12", res.Item.Expiry)

	rec = do(t, h, http.MethodPut, "/api/items/2", `{"quantity":-4}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	item, _ := store.FindById(2)
	assert.Equal(t, 30, item.GetQuantity())

	rec = do(t, h, http.MethodPut, "/api/items/404", `{"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteItem(t *testing.T) {
	store, h := newTestServer(t)
	rec := do(t, h, http.MethodDelete, "/api/items/5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[ItemResponse](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, "Item deleted successfully", res.Message)
	assert.Nil(t, res.Item)
	assert.False(t, store.HasItem(5))

	rec = do(t, h, http.MethodDelete, "/api/items/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdjustStock(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/api/items/10/stock", `{"delta":8}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, decode[types.ItemView](t, rec).Quantity)

	rec = do(t, h, http.MethodPost, "/api/items/10/stock", `{"delta":-11}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Error, "insufficient stock")
}

func TestAdjustStockOverflow(t *testing.T) {
	store, h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/api/items/2/stock", `{"delta":9223372036854775807}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	milk, _ := store.FindById(2)
	assert.Equal(t, 25, milk.GetQuantity())
}

func TestSearch(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/search/name/MILK", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Amul Whole Milk"}, names(decode[[]types.ItemView](t, rec)))

	rec = do(t, h, http.MethodGet, "/api/search/name/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.ItemView](t, rec), 20)

	rec = do(t, h, http.MethodGet, "/api/search/category/Dairy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Amul Whole Milk", "Amul Greek Yogurt", "Paneer (Amul)"}, names(decode[[]types.ItemView](t, rec)))

	rec = do(t, h, http.MethodGet, "/api/search/category/dairy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestLowStock(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/low-stock", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[ListResponse](t, rec)
	assert.Equal(t, 5, res.Count)
	assert.Equal(t, "Amul Greek Yogurt", res.Items[0].Name)

	rec = do(t, h, http.MethodGet, "/api/low-stock?threshold=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Frooti Orange Juice"}, names(decode[ListResponse](t, rec).Items))

	rec = do(t, h, http.MethodGet, "/api/low-stock?threshold=many", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/low-stock?threshold=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpiry(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/expiry/0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[ExpiryResponse](t, rec)
	assert.Equal(t, 0, res.Days)
	assert.Equal(t, 4, res.Count)

	rec = do(t, h, http.MethodGet, "/api/expiry/2?from=2025-11-13", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode[ExpiryResponse](t, rec)
	assert.Equal(t, []string{"Alphonso Mangoes (Maharashtra)", "Amul Greek Yogurt", "Frooti Orange Juice", "Fresh Tomatoes (Nashik)", "Paneer (Amul)"}, names(res.Items))

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/expiry/soon", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/expiry/-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/expiry/3?from=11/11/2025", "").Code)
}

func TestBill(t *testing.T) {
	store, h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/api/bill", `{"cart":[{"id":2,"quantity":2},{"id":16,"quantity":1}],"discount":10}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[BillResult](t, rec)
	assert.True(t, res.Success)
	require.NotNil(t, res.Bill)
	require.Len(t, res.Bill.Items, 2)
	assert.Equal(t, "110.00", res.Bill.Items[0].Amount.StringFixed(2))
	assert.Equal(t, "490.00", res.Bill.Subtotal.StringFixed(2))
	assert.Equal(t, "463.05", res.Bill.Total.StringFixed(2))
	assert.Equal(t, "5.00", res.Bill.TaxPercent.StringFixed(2))
	assert.Contains(t, rec.Body.String(), `"total":463.05`)

	milk, _ := store.FindById(2)
	assert.Equal(t, 23, milk.GetQuantity())
}

func TestBillIsAllOrNothing(t *testing.T) {
	store, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/bill", `{"cart":[{"id":2,"quantity":1},{"id":10,"quantity":3}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/bill", `{"cart":[{"id":2,"quantity":1},{"id":99,"quantity":1}]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/bill", `{"cart":[{"id":2,"quantity":1}],"discount":150}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/bill", `{"cart":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	milk, _ := store.FindById(2)
	assert.Equal(t, 25, milk.GetQuantity())
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[HealthResponse](t, rec)
	assert.Equal(t, "OK", res.Status)
	assert.Equal(t, 20, res.ItemsCount)
	assert.True(t, testNow.Equal(res.Timestamp))
}

func TestPreflightAndMethods(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodOptions, "/api/items/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, POST, PUT, DELETE", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))

	rec = do(t, h, http.MethodPatch, "/api/items/1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIdIsKept(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIdHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIdHeader))
}

func TestCachedResponsesFollowMutations(t *testing.T) {
	c := cache.NewCache("", "", 0)
	store, h := newTestServer(t, WithCache(c, time.Minute))

	first := decode[[]types.ItemView](t, do(t, h, http.MethodGet, "/api/search/category/Dairy", ""))
	require.Len(t, first, 3)
	again := decode[[]types.ItemView](t, do(t, h, http.MethodGet, "/api/search/category/Dairy", ""))
	assert.Equal(t, first, again)

	version := store.Version()
	rec := do(t, h, http.MethodDelete, "/api/items/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Greater(t, store.Version(), version)

	after := decode[[]types.ItemView](t, do(t, h, http.MethodGet, "/api/search/category/Dairy", ""))
	assert.Equal(t, []string{"Amul Greek Yogurt", "Paneer (Amul)"}, names(after))
}
