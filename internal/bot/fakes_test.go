package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"pizzabot/internal/messaging"
	"pizzabot/internal/modules/catalog"
	"pizzabot/internal/modules/order"
	"pizzabot/internal/modules/payment"
	"pizzabot/internal/modules/pricing"
	"pizzabot/internal/modules/session"
	"pizzabot/internal/types"
)

var errBoom = errors.New("boom")

func rub(amount int64) types.Money {
	return types.Money{Amount: amount, Currency: "RUB"}
}

// --- catalog ---

type fakeCatalog struct {
	mu        sync.Mutex
	products  []catalog.Product
	carts     map[string][]catalog.CartItem
	nextItem  int
	customers map[string]*catalog.Customer
	locations []catalog.FulfillmentLocation

	emailUpdates    int
	locationUpdates int
	creates         int
	fail            map[string]error
}

func newFakeCatalog(nProducts int) *fakeCatalog {
	c := &fakeCatalog{
		carts:     map[string][]catalog.CartItem{},
		customers: map[string]*catalog.Customer{},
		fail:      map[string]error{},
	}
	for i := 1; i <= nProducts; i++ {
		id := "p" + strconv.Itoa(i)
		c.products = append(c.products, catalog.Product{
			ID:          id,
			Name:        "Pizza " + id,
			Description: "Description of " + id,
			UnitPrice:   rub(int64(i) * 10000),
			ImageURL:    "https://img/" + id + ".jpg",
		})
	}
	return c
}

func (c *fakeCatalog) failing(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fail[op]
}

func (c *fakeCatalog) ListProducts(_ context.Context, offset, limit int) (catalog.ProductPage, error) {
	if err := c.failing("ListProducts"); err != nil {
		return catalog.ProductPage{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	page := catalog.ProductPage{Total: len(c.products)}
	for i := offset; i < offset+limit && i < len(c.products); i++ {
		page.Items = append(page.Items, c.products[i])
	}
	return page, nil
}

func (c *fakeCatalog) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	if err := c.failing("GetProduct"); err != nil {
		return catalog.Product{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, nil
		}
	}
	return catalog.Product{}, catalog.ErrNotFound
}

func (c *fakeCatalog) GetCart(_ context.Context, cartKey string) (catalog.CartView, error) {
	if err := c.failing("GetCart"); err != nil {
		return catalog.CartView{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return catalog.NewCartView(append([]catalog.CartItem(nil), c.carts[cartKey]...), "RUB"), nil
}

func (c *fakeCatalog) AddCartItem(_ context.Context, cartKey, productID string, quantity int) error {
	if err := c.failing("AddCartItem"); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	items := c.carts[cartKey]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += quantity
			return nil
		}
	}
	for _, p := range c.products {
		if p.ID == productID {
			c.nextItem++
			c.carts[cartKey] = append(items, catalog.CartItem{
				ID:          strconv.Itoa(c.nextItem),
				ProductID:   p.ID,
				Name:        p.Name,
				Description: p.Description,
				UnitPrice:   p.UnitPrice,
				Quantity:    quantity,
			})
			return nil
		}
	}
	return catalog.ErrNotFound
}

func (c *fakeCatalog) RemoveCartItem(_ context.Context, cartKey, itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := c.carts[cartKey]
	for i := range items {
		if items[i].ID == itemID {
			c.carts[cartKey] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (c *fakeCatalog) cart(key string) []catalog.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]catalog.CartItem(nil), c.carts[key]...)
}

func (c *fakeCatalog) FindCustomerByName(_ context.Context, name string) (*catalog.Customer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cust, ok := c.customers[name]
	if !ok {
		return nil, nil
	}
	cp := *cust
	return &cp, nil
}

func (c *fakeCatalog) CreateCustomer(_ context.Context, name, email string) (catalog.Customer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creates++
	cust := &catalog.Customer{ID: strconv.Itoa(len(c.customers) + 1), Name: name, Email: email}
	c.customers[name] = cust
	return *cust, nil
}

func (c *fakeCatalog) UpdateCustomerEmail(_ context.Context, id, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cust := range c.customers {
		if cust.ID == id {
			c.emailUpdates++
			cust.Email = email
			return nil
		}
	}
	return catalog.ErrNotFound
}

func (c *fakeCatalog) UpdateCustomerLocation(_ context.Context, id string, p types.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cust := range c.customers {
		if cust.ID == id {
			c.locationUpdates++
			cust.Location = &p
			return nil
		}
	}
	return catalog.ErrNotFound
}

func (c *fakeCatalog) ListFulfillmentLocations(_ context.Context, flowKey string) ([]catalog.FulfillmentLocation, error) {
	if err := c.failing("ListFulfillmentLocations"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]catalog.FulfillmentLocation(nil), c.locations...), nil
}

// --- messenger ---

type sentMessage struct {
	chatID string
	msg    messaging.Message
}

type sentLocation struct {
	chatID string
	point  types.Point
}

type precheckAnswer struct {
	queryID string
	ok      bool
	errMsg  string
}

type fakeMessenger struct {
	mu        sync.Mutex
	sent      []sentMessage
	locations []sentLocation
	invoices  []messaging.Invoice
	answers   []precheckAnswer
	acks      []string
	failSend  bool
}

func (m *fakeMessenger) Send(_ context.Context, chatID string, msg messaging.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend {
		return errBoom
	}
	m.sent = append(m.sent, sentMessage{chatID: chatID, msg: msg})
	return nil
}

func (m *fakeMessenger) SendLocation(_ context.Context, chatID string, p types.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = append(m.locations, sentLocation{chatID: chatID, point: p})
	return nil
}

func (m *fakeMessenger) SendInvoice(_ context.Context, _ string, inv messaging.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices = append(m.invoices, inv)
	return nil
}

func (m *fakeMessenger) AnswerPrecheckout(_ context.Context, queryID string, ok bool, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, precheckAnswer{queryID: queryID, ok: ok, errMsg: errMsg})
	return nil
}

func (m *fakeMessenger) Acknowledge(_ context.Context, _, _, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acks = append(m.acks, text)
	return nil
}

func (m *fakeMessenger) last() messaging.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return messaging.Message{}
	}
	return m.sent[len(m.sent)-1].msg
}

func (m *fakeMessenger) sentTo(chatID string) []messaging.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []messaging.Message
	for _, s := range m.sent {
		if s.chatID == chatID {
			out = append(out, s.msg)
		}
	}
	return out
}

// buttonData flattens a message's buttons to their payloads.
func buttonData(m messaging.Message) []string {
	var out []string
	for _, row := range m.Buttons {
		for _, b := range row {
			out = append(out, b.Data)
		}
	}
	return out
}

// --- sessions ---

type fakeSessions struct {
	mu    sync.Mutex
	data  map[string]session.Session
	saves int
	fail  error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{data: map[string]session.Session{}}
}

func (s *fakeSessions) Get(_ context.Context, key string) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return session.Session{}, s.fail
	}
	sess, ok := s.data[key]
	if !ok {
		return session.Session{Key: key}, nil
	}
	return sess, nil
}

func (s *fakeSessions) Save(_ context.Context, sess session.Session) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[sess.Key].Version != sess.Version {
		return sess, session.ErrConflict
	}
	sess.Version++
	s.data[sess.Key] = sess
	s.saves++
	return sess, nil
}

func (s *fakeSessions) put(sess session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.Version = s.data[sess.Key].Version
	s.data[sess.Key] = sess
}

func (s *fakeSessions) get(key string) session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key]
}

// --- reminders, geocoder, payments, helper ---

type scheduled struct {
	key   string
	delay time.Duration
}

type fakeReminders struct {
	mu   sync.Mutex
	jobs []scheduled
	// failures is the number of upcoming Schedule calls that fail.
	failures int
}

func (r *fakeReminders) Schedule(_ context.Context, userKey string, delay time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return errBoom
	}
	r.jobs = append(r.jobs, scheduled{key: userKey, delay: delay})
	return nil
}

type fakeGeocoder struct {
	known map[string]types.Point
	err   error
	// hang makes Geocode wait for its context to end.
	hang bool
}

func (g *fakeGeocoder) Geocode(ctx context.Context, address string) (types.Point, bool, error) {
	if g.hang {
		<-ctx.Done()
		return types.Point{}, false, ctx.Err()
	}
	if g.err != nil {
		return types.Point{}, false, g.err
	}
	p, ok := g.known[address]
	return p, ok, nil
}

type memPayloads struct {
	mu sync.Mutex
	m  map[string]string
}

func (s *memPayloads) PutPayload(_ context.Context, userKey, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userKey] = payload
	return nil
}

func (s *memPayloads) GetPayload(_ context.Context, userKey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[userKey], nil
}

type memOrders struct {
	mu     sync.Mutex
	orders []order.Order
	err    error
}

func (s *memOrders) Create(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.orders = append(s.orders, *o)
	return nil
}

type fakeHelper struct {
	reply string
	calls int
}

func (h *fakeHelper) HelpReply(_ context.Context, _, _, _ string) (string, error) {
	h.calls++
	return h.reply, nil
}

// --- harness ---

const (
	testChat = "100"
	testKey  = "tg_pizza_shop_100"
)

var pizzeria = types.Point{Lat: 55.0, Lng: 37.0}

// kmPerDegreeLat matches the earth radius used by the router.
const kmPerDegreeLat = 6371.0 * 3.141592653589793 / 180.0

func north(p types.Point, km float64) types.Point {
	return types.Point{Lat: p.Lat + km/kmPerDegreeLat, Lng: p.Lng}
}

type harness struct {
	t    *testing.T
	eng  *Engine
	cat  *fakeCatalog
	msgr *fakeMessenger
	sess *fakeSessions
	rem  *fakeReminders
	geo  *fakeGeocoder
	ords *memOrders
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:    t,
		cat:  newFakeCatalog(8),
		msgr: &fakeMessenger{},
		sess: newFakeSessions(),
		rem:  &fakeReminders{},
		geo:  &fakeGeocoder{known: map[string]types.Point{}},
		ords: &memOrders{},
	}
	h.cat.locations = []catalog.FulfillmentLocation{
		{ID: "loc-1", Alias: "Central", Address: "1 Main St", Position: pizzeria, CourierContactID: "courier-1"},
		{ID: "loc-2", Alias: "Far", Address: "9 Remote Rd", Position: types.Point{Lat: 60.0, Lng: 30.0}, CourierContactID: "courier-2"},
	}
	h.eng = NewEngine(Deps{
		Catalog:    h.cat,
		Geocoder:   h.geo,
		Payments:   payment.NewService(&memPayloads{m: map[string]string{}}),
		Sessions:   h.sess,
		Reminders:  h.rem,
		Pricing:    pricing.NewService(pricing.Fees{Near: rub(10000), Far: rub(30000)}),
		Messengers: map[messaging.Channel]Messenger{messaging.ChannelTelegram: h.msgr},
		Orders:     order.NewService(h.ords),
	}, Options{
		PageSize:      3,
		CallTimeout:   time.Second,
		ReminderDelay: time.Hour,
		FlowKey:       "pizzerias",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return h
}

func (h *harness) event(ev messaging.Event) {
	ev.Channel = messaging.ChannelTelegram
	ev.ChatID = testChat
	h.eng.Handle(context.Background(), ev)
}

func (h *harness) text(s string) {
	h.event(messaging.Event{Kind: messaging.KindText, Text: s})
}

func (h *harness) tap(data string) {
	h.event(messaging.Event{Kind: messaging.KindButton, Data: data, CallbackID: "cb"})
}

func (h *harness) shareLocation(p types.Point) {
	h.event(messaging.Event{Kind: messaging.KindLocation, Location: &p})
}

func (h *harness) precheck(payload string) {
	h.event(messaging.Event{Kind: messaging.KindPaymentPrecheck, Payment: &messaging.Payment{QueryID: "q1", Payload: payload}})
}

func (h *harness) paid() {
	h.event(messaging.Event{Kind: messaging.KindPaymentSuccess, Payment: &messaging.Payment{}})
}

func (h *harness) state() State {
	return ParseState(h.sess.get(testKey).State)
}

func (h *harness) setState(s State) {
	h.sess.put(session.Session{Key: testKey, State: s.String()})
}

func sessionWithState(name string) session.Session {
	return session.Session{Key: testKey, State: name}
}
