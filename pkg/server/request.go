package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/schema"
	"github.com/matst80/slask-grocery/pkg/common/jsoncompat"
	"github.com/matst80/slask-grocery/pkg/types"
	"github.com/shopspring/decimal"
)

type CreateItemRequest struct {
	Name       string      `json:"name"`
	Category   string      `json:"category"`
	Price      types.Price `json:"price"`
	Quantity   int         `json:"quantity"`
	Perishable bool        `json:"perishable"`
	Expiry     string      `json:"expiry"`
}

func (r *CreateItemRequest) ToItem() (*types.Item, error) {
	if r.Perishable {
		return types.NewPerishable(0, r.Name, r.Category, r.Price.Decimal, r.Quantity, r.Expiry)
	}
	return types.NewNonPerishable(0, r.Name, r.Category, r.Price.Decimal, r.Quantity)
}

type UpdateItemRequest struct {
	Name     *string      `json:"name"`
	Category *string      `json:"category"`
	Price    *types.Price `json:"price"`
	Quantity *int         `json:"quantity"`
}

func (r *UpdateItemRequest) ToUpdate() types.ItemUpdate {
	u := types.ItemUpdate{
		Name:     r.Name,
		Category: r.Category,
		Quantity: r.Quantity,
	}
	if r.Price != nil {
		price := r.Price.Decimal
		u.Price = &price
	}
	return u
}

type StockRequest struct {
	Delta int `json:"delta"`
}

type CartLine struct {
	Id       types.ItemId `json:"id"`
	Quantity int          `json:"quantity"`
}

type BillRequest struct {
	Cart     []CartLine       `json:"cart"`
	Tax      *decimal.Decimal `json:"tax"`
	Discount *decimal.Decimal `json:"discount"`
}

func (r *BillRequest) OrderLines() []types.OrderLine {
	lines := make([]types.OrderLine, 0, len(r.Cart))
	for _, l := range r.Cart {
		lines = append(lines, types.OrderLine{Id: l.Id, Quantity: l.Quantity})
	}
	return lines
}

type LowStockQuery struct {
	Threshold *int `schema:"threshold"`
}

type ExpiryQuery struct {
	From string `schema:"from"`
}

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return decoder
}

func decodeQuery(query url.Values, out any) error {
	if err := queryDecoder.Decode(out, query); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidValue, err)
	}
	return nil
}

func decodeBody(r *http.Request, out any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: missing body", types.ErrInvalidValue)
	}
	if err := jsoncompat.NewDecoder(r.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed json: %v", types.ErrInvalidValue, err)
	}
	return nil
}

func pathId(r *http.Request) (types.ItemId, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", types.ErrInvalidValue, raw)
	}
	return types.ItemId(id), nil
}

func parseFrom(from string, now time.Time) (time.Time, error) {
	if from == "" {
		return now, nil
	}
	t, err := time.Parse(types.ExpiryLayout, from)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: from must be %s", types.ErrInvalidValue, types.ExpiryLayout)
	}
	return t, nil
}
