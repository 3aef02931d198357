package server

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/matst80/slask-grocery/pkg/billing"
	"github.com/matst80/slask-grocery/pkg/common"
	"github.com/matst80/slask-grocery/pkg/types"
)

type ItemResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Item    *types.ItemView `json:"item,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type ListResponse struct {
	Count int              `json:"count"`
	Items []types.ItemView `json:"items"`
}

type ExpiryResponse struct {
	Days  int              `json:"days"`
	Count int              `json:"count"`
	Items []types.ItemView `json:"items"`
}

type HealthResponse struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	ItemsCount int       `json:"items_count"`
}

type BillLineResponse struct {
	Id       types.ItemId `json:"id"`
	Name     string       `json:"name"`
	Quantity int          `json:"quantity"`
	Rate     types.Price  `json:"rate"`
	Amount   types.Price  `json:"amount"`
}

type BillResponse struct {
	Items           []BillLineResponse `json:"items"`
	Subtotal        types.Price        `json:"subtotal"`
	DiscountPercent types.Price        `json:"discount_percent"`
	DiscountAmount  types.Price        `json:"discount_amount"`
	TaxPercent      types.Price        `json:"tax_percent"`
	TaxAmount       types.Price        `json:"tax_amount"`
	Total           types.Price        `json:"total"`
	Timestamp       time.Time          `json:"timestamp"`
}

type BillResult struct {
	Success bool          `json:"success"`
	Bill    *BillResponse `json:"bill"`
}

func newBillResponse(b *billing.Bill) *BillResponse {
	lines := make([]BillLineResponse, 0, len(b.Lines))
	for _, l := range b.Lines {
		lines = append(lines, BillLineResponse{
			Id:       l.Id,
			Name:     l.Name,
			Quantity: l.Quantity,
			Rate:     types.NewPrice(l.Rate),
			Amount:   types.NewPrice(l.Amount),
		})
	}
	return &BillResponse{
		Items:           lines,
		Subtotal:        types.NewPrice(b.Subtotal),
		DiscountPercent: types.NewPrice(b.DiscountPercent),
		DiscountAmount:  types.NewPrice(b.DiscountAmount),
		TaxPercent:      types.NewPrice(b.TaxPercent),
		TaxAmount:       types.NewPrice(b.TaxAmount),
		Total:           types.NewPrice(b.Total),
		Timestamp:       b.Timestamp,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidValue), errors.Is(err, types.ErrInsufficientStock):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log.Printf("%s %s failed (%d): %v", r.Method, r.URL.Path, status, err)
	common.WriteJson(w, status, ErrorResponse{Success: false, Error: err.Error()})
}

func writeItems(w http.ResponseWriter, items []types.ItemView) {
	common.WriteJson(w, http.StatusOK, items)
}
