// README: Catalog store backed by PostgreSQL (products, carts, customers, flow entries).
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pizzabot/internal/types"
)

type Store struct {
	db       *pgxpool.Pool
	currency string
}

func NewStore(db *pgxpool.Pool, currency string) *Store {
	return &Store{db: db, currency: currency}
}

func (s *Store) ListProducts(ctx context.Context, offset, limit int) (ProductPage, error) {
	if offset < 0 || limit <= 0 {
		return ProductPage{}, ErrBadRequest
	}
	var page ProductPage
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM products WHERE live`).Scan(&page.Total); err != nil {
		return ProductPage{}, fmt.Errorf("count products: %w", err)
	}
	rows, err := s.db.Query(ctx, `
        SELECT id, name, description, price, currency, image_url
        FROM products
        WHERE live
        ORDER BY position, id
        OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.UnitPrice.Amount, &p.UnitPrice.Currency, &p.ImageURL); err != nil {
			return ProductPage{}, fmt.Errorf("scan product: %w", err)
		}
		page.Items = append(page.Items, p)
	}
	return page, rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	err := s.db.QueryRow(ctx, `
        SELECT id, name, description, price, currency, image_url
        FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.UnitPrice.Amount, &p.UnitPrice.Currency, &p.ImageURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) GetCart(ctx context.Context, cartKey string) (CartView, error) {
	rows, err := s.db.Query(ctx, `
        SELECT ci.id, p.id, p.name, p.description, p.price, p.currency, ci.quantity
        FROM cart_items ci
        JOIN products p ON p.id = ci.product_id
        WHERE ci.cart_id = $1
        ORDER BY ci.id`, cartKey)
	if err != nil {
		return CartView{}, fmt.Errorf("get cart %s: %w", cartKey, err)
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		var it CartItem
		var itemID int64
		if err := rows.Scan(&itemID, &it.ProductID, &it.Name, &it.Description, &it.UnitPrice.Amount, &it.UnitPrice.Currency, &it.Quantity); err != nil {
			return CartView{}, fmt.Errorf("scan cart item: %w", err)
		}
		it.ID = strconv.FormatInt(itemID, 10)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return CartView{}, err
	}
	return NewCartView(items, s.currency), nil
}

// AddCartItem adds quantity units of a product; an existing line is incremented.
func (s *Store) AddCartItem(ctx context.Context, cartKey, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrBadRequest
	}
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
            INSERT INTO carts (id, created_at) VALUES ($1, NOW())
            ON CONFLICT (id) DO NOTHING`, cartKey); err != nil {
			return fmt.Errorf("ensure cart: %w", err)
		}
		if _, err := tx.Exec(ctx, `
            INSERT INTO cart_items (cart_id, product_id, quantity)
            VALUES ($1, $2, $3)
            ON CONFLICT (cart_id, product_id)
            DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
			cartKey, productID, quantity); err != nil {
			return fmt.Errorf("add cart item: %w", err)
		}
		return nil
	})
}

func (s *Store) RemoveCartItem(ctx context.Context, cartKey, itemID string) error {
	id, err := strconv.ParseInt(itemID, 10, 64)
	if err != nil {
		return ErrBadRequest
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, id, cartKey); err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

// FindCustomerByName returns nil when no customer has that name.
func (s *Store) FindCustomerByName(ctx context.Context, name string) (*Customer, error) {
	var c Customer
	var id int64
	var lat, lng *float64
	err := s.db.QueryRow(ctx, `
        SELECT id, name, email, latitude, longitude
        FROM customers WHERE name = $1`, name,
	).Scan(&id, &c.Name, &c.Email, &lat, &lng)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	c.ID = strconv.FormatInt(id, 10)
	if lat != nil && lng != nil {
		c.Location = &types.Point{Lat: *lat, Lng: *lng}
	}
	return &c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, name, email string) (Customer, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
        INSERT INTO customers (name, email) VALUES ($1, $2)
        RETURNING id`, name, email,
	).Scan(&id)
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return Customer{ID: strconv.FormatInt(id, 10), Name: name, Email: email}, nil
}

func (s *Store) UpdateCustomerEmail(ctx context.Context, id, email string) error {
	return s.updateCustomer(ctx, id, `UPDATE customers SET email = $2 WHERE id = $1`, email)
}

func (s *Store) UpdateCustomerLocation(ctx context.Context, id string, p types.Point) error {
	return s.updateCustomer(ctx, id, `UPDATE customers SET latitude = $2, longitude = $3 WHERE id = $1`, p.Lat, p.Lng)
}

func (s *Store) updateCustomer(ctx context.Context, id, query string, args ...any) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ErrBadRequest
	}
	tag, err := s.db.Exec(ctx, query, append([]any{n}, args...)...)
	if err != nil {
		return fmt.Errorf("update customer %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFulfillmentLocations reads the entries of a flow in their stored order.
func (s *Store) ListFulfillmentLocations(ctx context.Context, flowKey string) ([]FulfillmentLocation, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, fields
        FROM flow_entries
        WHERE flow_key = $1
        ORDER BY position, id`, flowKey)
	if err != nil {
		return nil, fmt.Errorf("list flow %s: %w", flowKey, err)
	}
	defer rows.Close()

	var out []FulfillmentLocation
	for rows.Next() {
		var id int64
		var fields map[string]any
		if err := rows.Scan(&id, &fields); err != nil {
			return nil, fmt.Errorf("scan flow entry: %w", err)
		}
		loc, err := locationFromFields(strconv.FormatInt(id, 10), fields)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func locationFromFields(id string, fields map[string]any) (FulfillmentLocation, error) {
	lat, okLat := number(fields["latitude"])
	lng, okLng := number(fields["longitude"])
	if !okLat || !okLng {
		return FulfillmentLocation{}, fmt.Errorf("flow entry %s: missing coordinates", id)
	}
	loc := FulfillmentLocation{
		ID:       id,
		Position: types.Point{Lat: lat, Lng: lng},
	}
	loc.Address, _ = fields["address"].(string)
	loc.Alias, _ = fields["alias"].(string)
	switch v := fields["courier_tg_id"].(type) {
	case string:
		loc.CourierContactID = v
	case float64:
		loc.CourierContactID = strconv.FormatInt(int64(v), 10)
	}
	return loc, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
