package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/matst80/slask-grocery/pkg/billing"
	"github.com/matst80/slask-grocery/pkg/common"
	"github.com/matst80/slask-grocery/pkg/types"
)

func (ws *WebServer) Health(w http.ResponseWriter, r *http.Request) {
	common.WriteJson(w, http.StatusOK, HealthResponse{
		Status:     "OK",
		Timestamp:  ws.now(),
		ItemsCount: ws.Store.Count(),
	})
}

// cachedItems serves the lookup from the list cache when one is configured.
func (ws *WebServer) cachedItems(r *http.Request, key string, lookup func() ([]*types.Item, error)) ([]types.ItemView, error) {
	versioned := fmt.Sprintf("slaskgrocery:v%d:%s", ws.Store.Version(), key)
	return ws.ListCache.Handle(r.Context(), versioned, func() ([]types.ItemView, error) {
		items, err := lookup()
		if err != nil {
			return nil, err
		}
		return types.Views(items), nil
	})
}

func (ws *WebServer) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := ws.cachedItems(r, "all", func() ([]*types.Item, error) {
		return ws.Store.ListAll(), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeItems(w, items)
}

func (ws *WebServer) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, ok := ws.Store.FindById(id)
	if !ok {
		writeError(w, r, fmt.Errorf("%w: id %d", types.ErrNotFound, id))
		return
	}
	common.WriteJson(w, http.StatusOK, item.View())
}

func (ws *WebServer) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	candidate, err := req.ToItem()
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := ws.Store.Insert(candidate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view := item.View()
	common.WriteJson(w, http.StatusCreated, ItemResponse{
		Success: true,
		Message: "Item added successfully",
		Item:    &view,
	})
}

func (ws *WebServer) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req UpdateItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := ws.Store.UpdateItem(id, req.ToUpdate())
	if err != nil {
		writeError(w, r, err)
		return
	}
	view := item.View()
	common.WriteJson(w, http.StatusOK, ItemResponse{
		Success: true,
		Message: "Item updated successfully",
		Item:    &view,
	})
}

func (ws *WebServer) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := ws.Store.RemoveItem(id); err != nil {
		writeError(w, r, err)
		return
	}
	common.WriteJson(w, http.StatusOK, ItemResponse{
		Success: true,
		Message: "Item deleted successfully",
	})
}

func (ws *WebServer) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req StockRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := ws.Store.AdjustQuantity(id, req.Delta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	common.WriteJson(w, http.StatusOK, item.View())
}

func (ws *WebServer) SearchByName(w http.ResponseWriter, r *http.Request) {
	query := r.PathValue("query")
	items, err := ws.cachedItems(r, "name:"+query, func() ([]*types.Item, error) {
		return ws.Store.SearchByName(query), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeItems(w, items)
}

func (ws *WebServer) SearchByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	items, err := ws.cachedItems(r, "category:"+category, func() ([]*types.Item, error) {
		return ws.Store.SearchByCategory(category), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeItems(w, items)
}

func (ws *WebServer) LowStock(w http.ResponseWriter, r *http.Request) {
	var q LowStockQuery
	if err := decodeQuery(r.URL.Query(), &q); err != nil {
		writeError(w, r, err)
		return
	}
	threshold := ws.LowStockThreshold
	if q.Threshold != nil {
		if *q.Threshold < 0 {
			writeError(w, r, fmt.Errorf("%w: threshold cannot be negative", types.ErrInvalidValue))
			return
		}
		threshold = *q.Threshold
	}
	items, err := ws.cachedItems(r, "low:"+strconv.Itoa(threshold), func() ([]*types.Item, error) {
		return ws.Store.LowStock(threshold), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	common.WriteJson(w, http.StatusOK, ListResponse{Count: len(items), Items: items})
}

func (ws *WebServer) Expiring(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.PathValue("days"))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid days %q", types.ErrInvalidValue, r.PathValue("days")))
		return
	}
	var q ExpiryQuery
	if err := decodeQuery(r.URL.Query(), &q); err != nil {
		writeError(w, r, err)
		return
	}
	from, err := parseFrom(q.From, ws.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	key := fmt.Sprintf("expiry:%s:%d", from.Format(types.ExpiryLayout), days)
	items, err := ws.cachedItems(r, key, func() ([]*types.Item, error) {
		return ws.Store.ExpiringWithin(from, days)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	common.WriteJson(w, http.StatusOK, ExpiryResponse{Days: days, Count: len(items), Items: items})
}

func (ws *WebServer) Bill(w http.ResponseWriter, r *http.Request) {
	var req BillRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tax, discount := ws.TaxPercent, ws.DiscountPercent
	if req.Tax != nil {
		tax = *req.Tax
	}
	if req.Discount != nil {
		discount = *req.Discount
	}
	if len(req.Cart) == 0 {
		writeError(w, r, fmt.Errorf("%w: cart is empty", types.ErrInvalidValue))
		return
	}
	// stock is only taken once the rates are known to be valid
	if err := billing.ValidateRates(tax, discount); err != nil {
		writeError(w, r, err)
		return
	}
	lines, err := ws.Store.Checkout(req.OrderLines())
	if err != nil {
		writeError(w, r, err)
		return
	}
	bill, err := billing.Calculate(lines, tax, discount, ws.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	common.WriteJson(w, http.StatusOK, BillResult{Success: true, Bill: newBillResponse(bill)})
}
