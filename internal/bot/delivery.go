package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"pizzabot/internal/messaging"
	"pizzabot/internal/modules/catalog"
	"pizzabot/internal/modules/location"
	"pizzabot/internal/modules/order"
	"pizzabot/internal/modules/pricing"
	"pizzabot/internal/types"
)

// Couriers are reached on Telegram regardless of the customer's channel.
const courierChannel = messaging.ChannelTelegram

// Route is the answer for one resolved customer position.
type Route struct {
	Location   catalog.FulfillmentLocation
	DistanceKm float64
	Quote      pricing.Quote
}

// route picks the nearest fulfillment location from a fresh listing.
func (e *Engine) route(ctx context.Context, p types.Point) (Route, error) {
	locs, err := e.listLocations(ctx)
	if err != nil {
		return Route{}, err
	}
	sites := make([]location.Site, len(locs))
	for i, l := range locs {
		sites[i] = location.Site{ID: l.ID, Position: l.Position}
	}
	nearest, err := location.FindNearest(p, sites)
	if err != nil {
		return Route{}, &GatewayError{Op: "router.find_nearest", Err: err}
	}
	return Route{
		Location:   locs[nearest.Index],
		DistanceKm: nearest.DistanceKm,
		Quote:      e.Pricing.Quote(nearest.DistanceKm),
	}, nil
}

func (e *Engine) listLocations(ctx context.Context) ([]catalog.FulfillmentLocation, error) {
	return call(ctx, e.opts.CallTimeout, "catalog.list_locations", func(c context.Context) ([]catalog.FulfillmentLocation, error) {
		return e.Catalog.ListFulfillmentLocations(c, e.opts.FlowKey)
	})
}

func (e *Engine) resolvePosition(ctx context.Context, t *turn) (types.Point, error) {
	if t.ev.Kind == messaging.KindLocation && t.ev.Location != nil {
		p := *t.ev.Location
		if !validPoint(p) {
			return types.Point{}, userInput("shared location %v is not a position", p)
		}
		return p, nil
	}
	address := strings.TrimSpace(t.ev.Text)
	if address == "" {
		return types.Point{}, userInput("empty address")
	}
	type result struct {
		p     types.Point
		found bool
	}
	r, err := call(ctx, e.opts.CallTimeout, "geocoder.geocode", func(c context.Context) (result, error) {
		p, found, err := e.Geocoder.Geocode(c, address)
		return result{p, found}, err
	})
	if err != nil {
		return types.Point{}, err
	}
	if !r.found {
		return types.Point{}, userInput("address %q not found", address)
	}
	return r.p, nil
}

func validPoint(p types.Point) bool {
	finite := func(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
	return finite(p.Lat) && finite(p.Lng) && math.Abs(p.Lat) <= 90 && math.Abs(p.Lng) <= 180
}

func (e *Engine) onLocation(ctx context.Context, t *turn) (State, error) {
	if t.ev.Kind != messaging.KindText && t.ev.Kind != messaging.KindLocation {
		return e.help(ctx, t)
	}
	p, err := e.resolvePosition(ctx, t)
	if err != nil {
		return t.state, err
	}
	if err := e.rememberCustomerLocation(ctx, t.key, p); err != nil {
		return t.state, err
	}
	r, err := e.route(ctx, p)
	if err != nil {
		return t.state, err
	}
	if err := e.send(ctx, t, routeMessage(r)); err != nil {
		return t.state, err
	}
	t.sess.Position = &p
	t.sess.LocationID = r.Location.ID
	return StateAwaitingDeliveryChoice, nil
}

// rememberCustomerLocation stores p on the customer record when it changed.
func (e *Engine) rememberCustomerLocation(ctx context.Context, name string, p types.Point) error {
	cust, err := e.findCustomer(ctx, name)
	if err != nil {
		return err
	}
	if cust == nil {
		e.log.Warn("no customer record for location update", "session", name)
		return nil
	}
	if cust.Location != nil && *cust.Location == p {
		return nil
	}
	return do(ctx, e.opts.CallTimeout, "catalog.update_customer_location", func(c context.Context) error {
		return e.Catalog.UpdateCustomerLocation(c, cust.ID, p)
	})
}

func routeMessage(r Route) messaging.Message {
	where := r.Location.Address
	var text string
	switch r.Quote.Tier {
	case pricing.TierPickupSuggested:
		text = fmt.Sprintf("The nearest pizzeria is only %.0f m away, at %s. You can pick the order up yourself, or we will deliver it for free.", r.DistanceKm*1000, where)
	case pricing.TierNear, pricing.TierFar:
		text = fmt.Sprintf("The nearest pizzeria is %.1f km away, at %s. Delivery costs %s, or you can pick the order up yourself.", r.DistanceKm, where, r.Quote.Fee)
	default:
		text = fmt.Sprintf("The nearest pizzeria is %.1f km away, at %s. That is too far for delivery, but you can pick the order up yourself.", r.DistanceKm, where)
	}
	row := []messaging.Button{{Text: "Pickup", Data: "pickup"}}
	if r.Quote.DeliveryEligible {
		row = append(row, messaging.Button{Text: "Delivery", Data: "delivery"})
	}
	return messaging.Message{Text: text, Buttons: [][]messaging.Button{row}}
}

// chosenRoute re-reads the location picked when the position was resolved.
func (e *Engine) chosenRoute(ctx context.Context, t *turn) (Route, error) {
	if t.sess.Position == nil || t.sess.LocationID == "" {
		return Route{}, userInput("no resolved position in session")
	}
	locs, err := e.listLocations(ctx)
	if err != nil {
		return Route{}, err
	}
	for _, l := range locs {
		if l.ID == t.sess.LocationID {
			km := location.DistanceKm(*t.sess.Position, l.Position)
			return Route{Location: l, DistanceKm: km, Quote: e.Pricing.Quote(km)}, nil
		}
	}
	return Route{}, userInput("fulfillment location %s is gone", t.sess.LocationID)
}

func (e *Engine) onDeliveryChoice(ctx context.Context, t *turn) (State, error) {
	cb, ok, err := button(t)
	if !ok {
		return e.help(ctx, t)
	}
	if err != nil {
		return t.state, err
	}
	switch cb.Action {
	case ActionPickup:
		r, err := e.chosenRoute(ctx, t)
		if err != nil {
			return t.state, err
		}
		return e.confirmPickup(ctx, t, r)
	case ActionDelivery:
		r, err := e.chosenRoute(ctx, t)
		if err != nil {
			return t.state, err
		}
		if !r.Quote.DeliveryEligible {
			return t.state, userInput("delivery not available at %.1f km", r.DistanceKm)
		}
		return e.confirmDelivery(ctx, t, r)
	}
	return e.help(ctx, t)
}

func (e *Engine) confirmPickup(ctx context.Context, t *turn, r Route) (State, error) {
	text := fmt.Sprintf("Great! Your order will be waiting for you at %s.", r.Location.Address)
	if err := e.send(ctx, t, messaging.Message{Text: text}); err != nil {
		return t.state, err
	}
	err := do(ctx, e.opts.CallTimeout, "messenger.send_location", func(c context.Context) error {
		return t.msgr.SendLocation(c, t.ev.ChatID, r.Location.Position)
	})
	if err != nil {
		return t.state, err
	}
	cart, err := e.loadCart(ctx, t.key)
	if err != nil {
		e.log.Warn("order not recorded", "session", t.key, "err", err)
		return StateStart, nil
	}
	e.closeOrder(ctx, t, r, order.MethodPickup, cart)
	return StateStart, nil
}

// closeOrder records the paid order and empties the cart it was paid from.
// The customer has already been answered, so both steps only log failures.
func (e *Engine) closeOrder(ctx context.Context, t *turn, r Route, method order.Method, cart catalog.CartView) {
	if e.Orders != nil {
		e.recordOrder(ctx, t, r, method, cart.Total)
	}
	for _, it := range cart.Items {
		err := do(ctx, e.opts.CallTimeout, "catalog.remove_cart_item", func(c context.Context) error {
			return e.Catalog.RemoveCartItem(c, t.key, it.ID)
		})
		if err != nil {
			e.log.Warn("cart not emptied", "session", t.key, "item", it.ID, "err", err)
			return
		}
	}
}

// recordOrder writes the order history entry. The customer has already paid
// and been answered, so a failure is logged rather than surfaced.
func (e *Engine) recordOrder(ctx context.Context, t *turn, r Route, method order.Method, total types.Money) {
	cmd := order.PlaceCommand{
		UserKey:    t.key,
		Method:     method,
		LocationID: r.Location.ID,
		Position:   t.sess.Position,
		DistanceKm: r.DistanceKm,
		Total:      total,
	}
	if method == order.MethodDelivery {
		cmd.Fee = r.Quote.Fee
	}
	_, err := call(ctx, e.opts.CallTimeout, "orders.place", func(c context.Context) (order.Order, error) {
		return e.Orders.Place(c, cmd)
	})
	if err != nil {
		e.log.Warn("order not recorded", "session", t.key, "location", r.Location.ID, "err", err)
	}
}

// confirmDelivery schedules the follow-up reminder and hands the order to the
// courier of the chosen location. The courier message is the last step that
// can fail the turn.
func (e *Engine) confirmDelivery(ctx context.Context, t *turn, r Route) (State, error) {
	courier, ok := e.Messengers[courierChannel]
	if !ok || r.Location.CourierContactID == "" {
		return t.state, &GatewayError{Op: "courier.notify", Err: errors.New("no courier contact for " + r.Location.ID)}
	}
	cart, err := e.loadCart(ctx, t.key)
	if err != nil {
		return t.state, err
	}
	err = do(ctx, e.opts.CallTimeout, "reminders.schedule", func(c context.Context) error {
		return e.Reminders.Schedule(c, t.key, e.opts.ReminderDelay)
	})
	if err != nil {
		return t.state, err
	}
	note := fmt.Sprintf("New delivery order from %s\n\n%s\n\nDelivery fee: %s", r.Location.Alias, cartText(cart), r.Quote.Fee)
	err = do(ctx, e.opts.CallTimeout, "courier.notify", func(c context.Context) error {
		return courier.Send(c, r.Location.CourierContactID, messaging.Message{Text: note})
	})
	if err != nil {
		return t.state, err
	}

	err = do(ctx, e.opts.CallTimeout, "courier.send_location", func(c context.Context) error {
		return courier.SendLocation(c, r.Location.CourierContactID, *t.sess.Position)
	})
	if err != nil {
		e.log.Warn("courier pin not sent", "session", t.key, "location", r.Location.ID, "err", err)
	}
	if err := e.send(ctx, t, messaging.Message{Text: textDeliveryConfirmed}); err != nil {
		e.log.Warn("delivery confirmation not sent", "session", t.key, "err", err)
	}
	e.closeOrder(ctx, t, r, order.MethodDelivery, cart)
	return StateStart, nil
}
