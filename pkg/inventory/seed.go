package inventory

import (
	"fmt"

	"github.com/matst80/slask-grocery/pkg/types"
	"github.com/shopspring/decimal"
)

type sampleItem struct {
	name     string
	category string
	price    int64
	quantity int
	expiry   string
}

var sampleItems = []sampleItem{
	{"Alphonso Mangoes (Maharashtra)", "Fruits", 180, 15, "2025-11-15"},
	{"Amul Whole Milk", "Dairy", 55, 25, "2025-11-12"},
	{"Basmati Rice (Dehra Dun)", "Grains", 180, 30, ""},
	{"Fresh Chicken Breast", "Meat", 280, 8, "2025-11-11"},
	{"Canned Beans (Indian)", "Canned Goods", 45, 45, ""},
	{"Amul Greek Yogurt", "Dairy", 120, 3, "2025-11-14"},
	{"Wheat Flour (Aata)", "Grains", 50, 50, ""},
	{"Fresh Spinach (Himalayan)", "Vegetables", 50, 4, "2025-11-11"},
	{"Sunflower Oil (Refined)", "Oils", 200, 20, ""},
	{"Frooti Orange Juice", "Beverages", 40, 2, "2025-11-13"},
	{"Multigrain Bread", "Bakery", 60, 15, "2025-11-12"},
	{"Assam Tea", "Beverages", 400, 5, ""},
	{"Strawberries (Kashmir)", "Fruits", 250, 6, "2025-11-11"},
	{"Peanut Butter (Creamy)", "Condiments", 250, 15, ""},
	{"Fresh Tomatoes (Nashik)", "Vegetables", 45, 20, "2025-11-15"},
	{"Paneer (Amul)", "Dairy", 380, 12, "2025-11-13"},
	{"Arhar Dal", "Pulses", 140, 25, ""},
	{"Garam Masala", "Spices", 180, 10, ""},
	{"Hilsa Fish", "Meat", 500, 5, "2025-11-11"},
	{"Coconut Oil (Virgin/Kerala)", "Oils", 280, 18, ""},
}

// sampleCatalog builds the seed items with id 0, items with an expiry are perishable.
func sampleCatalog() []*types.Item {
	res := make([]*types.Item, 0, len(sampleItems))
	for _, s := range sampleItems {
		var item *types.Item
		var err error
		if s.expiry != "" {
			item, err = types.NewPerishable(0, s.name, s.category, decimal.NewFromInt(s.price), s.quantity, s.expiry)
		} else {
			item, err = types.NewNonPerishable(0, s.name, s.category, decimal.NewFromInt(s.price), s.quantity)
		}
		if err != nil {
			panic(fmt.Sprintf("sample item %s: %v", s.name, err))
		}
		res = append(res, item)
	}
	return res
}
