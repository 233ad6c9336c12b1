// README: Catalog, cart, customer and fulfillment-location read models.
package catalog

import (
	"errors"

	"pizzabot/internal/types"
)

var (
	ErrNotFound   = errors.New("catalog: not found")
	ErrBadRequest = errors.New("catalog: bad request")
)

type Product struct {
	ID          string
	Name        string
	Description string
	UnitPrice   types.Money
	ImageURL    string
}

type ProductPage struct {
	Items []Product
	Total int
}

type CartItem struct {
	ID          string
	ProductID   string
	Name        string
	Description string
	UnitPrice   types.Money
	Quantity    int
	LineTotal   types.Money
}

type CartView struct {
	Items []CartItem
	Total types.Money
}

func (c CartView) IsEmpty() bool {
	return len(c.Items) == 0
}

type Customer struct {
	ID       string
	Name     string
	Email    string
	Location *types.Point
}

type FulfillmentLocation struct {
	ID               string
	Alias            string
	Address          string
	Position         types.Point
	CourierContactID string
}

// NewCartView derives line totals and the cart total from raw items.
// LineTotal on the input is ignored.
func NewCartView(items []CartItem, currency string) CartView {
	view := CartView{Items: make([]CartItem, 0, len(items)), Total: types.Money{Currency: currency}}
	for _, it := range items {
		it.LineTotal = it.UnitPrice.Times(it.Quantity)
		view.Total = view.Total.Plus(it.LineTotal)
		view.Items = append(view.Items, it)
	}
	return view
}
