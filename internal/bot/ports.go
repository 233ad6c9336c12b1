// README: Collaborators the conversation engine depends on. Stores and transports satisfy these.
package bot

import (
	"context"
	"time"

	"pizzabot/internal/messaging"
	"pizzabot/internal/modules/catalog"
	"pizzabot/internal/modules/order"
	"pizzabot/internal/modules/session"
	"pizzabot/internal/types"
)

type Catalog interface {
	ListProducts(ctx context.Context, offset, limit int) (catalog.ProductPage, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
	GetCart(ctx context.Context, cartKey string) (catalog.CartView, error)
	AddCartItem(ctx context.Context, cartKey, productID string, quantity int) error
	RemoveCartItem(ctx context.Context, cartKey, itemID string) error
	FindCustomerByName(ctx context.Context, name string) (*catalog.Customer, error)
	CreateCustomer(ctx context.Context, name, email string) (catalog.Customer, error)
	UpdateCustomerEmail(ctx context.Context, id, email string) error
	UpdateCustomerLocation(ctx context.Context, id string, p types.Point) error
	ListFulfillmentLocations(ctx context.Context, flowKey string) ([]catalog.FulfillmentLocation, error)
}

// Geocoder resolves free-text addresses. found is false when nothing matched.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (p types.Point, found bool, err error)
}

type Payments interface {
	IssueInvoice(ctx context.Context, userKey string, amount types.Money) (string, error)
	ValidatePrecheckout(ctx context.Context, userKey, payload string) (bool, error)
}

// Messenger is one channel's outbound transport.
type Messenger interface {
	Send(ctx context.Context, chatID string, m messaging.Message) error
	SendLocation(ctx context.Context, chatID string, p types.Point) error
	SendInvoice(ctx context.Context, chatID string, inv messaging.Invoice) error
	AnswerPrecheckout(ctx context.Context, queryID string, ok bool, errMsg string) error
	Acknowledge(ctx context.Context, chatID, callbackID, text string) error
}

type Sessions interface {
	Get(ctx context.Context, key string) (session.Session, error)
	Save(ctx context.Context, sess session.Session) (session.Session, error)
}

// Orders records confirmed orders.
type Orders interface {
	Place(ctx context.Context, cmd order.PlaceCommand) (order.Order, error)
}

type Reminders interface {
	Schedule(ctx context.Context, userKey string, delay time.Duration) error
}

// Helper writes a reply to free text the current state does not expect.
type Helper interface {
	HelpReply(ctx context.Context, userKey, state, text string) (string, error)
}
