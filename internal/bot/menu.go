package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pizzabot/internal/messaging"
	"pizzabot/internal/modules/catalog"
)

var quantityChoices = []int{1, 5, 10}

func lastPage(total, size int) int {
	if total <= 0 {
		return 0
	}
	return (total - 1) / size
}

// showMenu renders the menu page, clamped to the pages that exist.
func (e *Engine) showMenu(ctx context.Context, t *turn, page int) (State, error) {
	size := e.opts.PageSize
	page = max(page, 0)
	fetch := func(p int) (catalog.ProductPage, error) {
		return call(ctx, e.opts.CallTimeout, "catalog.list_products", func(c context.Context) (catalog.ProductPage, error) {
			return e.Catalog.ListProducts(c, p*size, size)
		})
	}
	pg, err := fetch(page)
	if err != nil {
		return t.state, err
	}
	if last := lastPage(pg.Total, size); page > last {
		page = last
		if pg, err = fetch(page); err != nil {
			return t.state, err
		}
	}
	if err := e.send(ctx, t, menuMessage(pg, page, lastPage(pg.Total, size))); err != nil {
		return t.state, err
	}
	t.sess.Page = page
	return StateMenu, nil
}

func menuMessage(pg catalog.ProductPage, page, last int) messaging.Message {
	m := messaging.Message{Text: fmt.Sprintf("Menu, page %d of %d. Pick a pizza:", page+1, last+1)}
	if len(pg.Items) == 0 {
		m.Text = "The menu is empty right now."
	}
	for _, p := range pg.Items {
		title := fmt.Sprintf("%s · %s", p.Name, p.UnitPrice)
		m.Buttons = append(m.Buttons, []messaging.Button{{Text: title, Data: ProductData(p.ID)}})
		m.Cards = append(m.Cards, messaging.Card{
			Title:    title,
			Subtitle: p.Description,
			ImageURL: p.ImageURL,
			Buttons:  []messaging.Button{{Text: "Choose", Data: ProductData(p.ID)}},
		})
	}
	var nav []messaging.Button
	if page > 0 {
		nav = append(nav, messaging.Button{Text: "◀", Data: PageData(page - 1)})
	}
	if page < last {
		nav = append(nav, messaging.Button{Text: "▶", Data: PageData(page + 1)})
	}
	if len(nav) > 0 {
		m.Buttons = append(m.Buttons, nav)
	}
	m.Buttons = append(m.Buttons, []messaging.Button{{Text: "Cart", Data: "cart"}})
	return m
}

func productMessage(p catalog.Product) messaging.Message {
	m := messaging.Message{
		Text:     fmt.Sprintf("%s\n%s per pizza\n\n%s", p.Name, p.UnitPrice, p.Description),
		PhotoURL: p.ImageURL,
	}
	qty := make([]messaging.Button, 0, len(quantityChoices))
	for _, n := range quantityChoices {
		qty = append(qty, messaging.Button{Text: fmt.Sprintf("%d pcs", n), Data: QuantityData(p.ID, n)})
	}
	m.Buttons = [][]messaging.Button{
		qty,
		{{Text: "Cart", Data: "cart"}, {Text: "Back", Data: "back"}},
	}
	return m
}

// cartText lists each line and the total. Line totals come from the cart view.
func cartText(cart catalog.CartView) string {
	if cart.IsEmpty() {
		return "Your cart is empty."
	}
	var b strings.Builder
	for _, it := range cart.Items {
		fmt.Fprintf(&b, "%s\n%s\n%s per pizza\n%d pcs for %s\n\n", it.Name, it.Description, it.UnitPrice, it.Quantity, it.LineTotal)
	}
	fmt.Fprintf(&b, "Total: %s", cart.Total)
	return b.String()
}

func cartMessage(cart catalog.CartView) messaging.Message {
	m := messaging.Message{Text: cartText(cart)}
	if !cart.IsEmpty() {
		m.Buttons = append(m.Buttons, []messaging.Button{{Text: "Checkout", Data: "checkout"}})
	}
	for _, it := range cart.Items {
		m.Buttons = append(m.Buttons, []messaging.Button{{Text: "Remove " + it.Name, Data: RemoveData(it.ID)}})
		m.Cards = append(m.Cards, messaging.Card{
			Title:    it.Name,
			Subtitle: fmt.Sprintf("%d pcs for %s", it.Quantity, it.LineTotal),
			Buttons:  []messaging.Button{{Text: "Remove", Data: RemoveData(it.ID)}},
		})
	}
	m.Buttons = append(m.Buttons, []messaging.Button{{Text: "Menu", Data: "menu"}})
	return m
}

func (e *Engine) loadCart(ctx context.Context, key string) (catalog.CartView, error) {
	return call(ctx, e.opts.CallTimeout, "catalog.get_cart", func(c context.Context) (catalog.CartView, error) {
		return e.Catalog.GetCart(c, key)
	})
}

func (e *Engine) showCart(ctx context.Context, t *turn) (State, error) {
	cart, err := e.loadCart(ctx, t.key)
	if err != nil {
		return t.state, err
	}
	if err := e.send(ctx, t, cartMessage(cart)); err != nil {
		return t.state, err
	}
	return StateCart, nil
}

func (e *Engine) showProduct(ctx context.Context, t *turn, id string) (State, error) {
	p, err := call(ctx, e.opts.CallTimeout, "catalog.get_product", func(c context.Context) (catalog.Product, error) {
		return e.Catalog.GetProduct(c, id)
	})
	if errors.Is(err, catalog.ErrNotFound) {
		return t.state, userInput("product %s no longer exists", id)
	}
	if err != nil {
		return t.state, err
	}
	if err := e.send(ctx, t, productMessage(p)); err != nil {
		return t.state, err
	}
	return StateProductDetail, nil
}

func (e *Engine) onMenu(ctx context.Context, t *turn) (State, error) {
	cb, ok, err := button(t)
	if !ok {
		return e.help(ctx, t)
	}
	if err != nil {
		return t.state, err
	}
	switch cb.Action {
	case ActionPage:
		return e.showMenu(ctx, t, cb.Page)
	case ActionCart:
		return e.showCart(ctx, t)
	case ActionProduct:
		return e.showProduct(ctx, t, cb.ID)
	}
	return e.help(ctx, t)
}

func (e *Engine) onProductDetail(ctx context.Context, t *turn) (State, error) {
	cb, ok, err := button(t)
	if !ok {
		return e.help(ctx, t)
	}
	if err != nil {
		return t.state, err
	}
	switch cb.Action {
	case ActionBack:
		return e.showMenu(ctx, t, 0)
	case ActionCart:
		return e.showCart(ctx, t)
	case ActionQuantity:
		err := do(ctx, e.opts.CallTimeout, "catalog.add_cart_item", func(c context.Context) error {
			return e.Catalog.AddCartItem(c, t.key, cb.ID, cb.Quantity)
		})
		if errors.Is(err, catalog.ErrNotFound) {
			return t.state, userInput("product %s no longer exists", cb.ID)
		}
		if err != nil {
			return t.state, err
		}
		t.ack = fmt.Sprintf("Added %d to your cart", cb.Quantity)
		return StateProductDetail, nil
	}
	return e.help(ctx, t)
}

func (e *Engine) onCart(ctx context.Context, t *turn) (State, error) {
	cb, ok, err := button(t)
	if !ok {
		return e.help(ctx, t)
	}
	if err != nil {
		return t.state, err
	}
	switch cb.Action {
	case ActionMenu:
		return e.showMenu(ctx, t, 0)
	case ActionCheckout:
		cart, err := e.loadCart(ctx, t.key)
		if err != nil {
			return t.state, err
		}
		if cart.IsEmpty() {
			return StateCart, e.send(ctx, t, cartMessage(cart))
		}
		if err := e.send(ctx, t, messaging.Message{Text: textAskEmail}); err != nil {
			return t.state, err
		}
		return StateAwaitingEmail, nil
	case ActionRemove:
		err := do(ctx, e.opts.CallTimeout, "catalog.remove_cart_item", func(c context.Context) error {
			return e.Catalog.RemoveCartItem(c, t.key, cb.ID)
		})
		if errors.Is(err, catalog.ErrBadRequest) {
			return t.state, userInput("bad cart item id %q", cb.ID)
		}
		if err != nil {
			return t.state, err
		}
		return e.showCart(ctx, t)
	}
	return e.help(ctx, t)
}
