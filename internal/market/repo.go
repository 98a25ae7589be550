package market

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const cartLineColumns = `
	ci.id, ci.listing_id, ci.quantity, ci.added_at,
	l.id, l.seller_id, l.seller_username, l.title, l.price_cents, l.quantity, l.status, l.is_active`

func scanCartLine(row pgx.Row) (CartLine, error) {
	var ln CartLine
	err := row.Scan(
		&ln.ID, &ln.ListingID, &ln.Quantity, &ln.AddedAt,
		&ln.Listing.ID, &ln.Listing.SellerID, &ln.Listing.SellerUsername,
		&ln.Listing.Title, &ln.Listing.PriceCents, &ln.Listing.Quantity,
		&ln.Listing.Status, &ln.Listing.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return CartLine{}, ErrNotFound
	}
	return ln, err
}

func (r *Repo) CartLines(ctx context.Context, userID string) ([]CartLine, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+cartLineColumns+`
		FROM cart_items ci
		JOIN listings l ON l.id = ci.listing_id
		WHERE ci.user_id = $1
		ORDER BY ci.added_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CartLine
	for rows.Next() {
		ln, err := scanCartLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ln)
	}
	return out, rows.Err()
}

func (r *Repo) CartLineByListing(ctx context.Context, userID, listingID string) (CartLine, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+cartLineColumns+`
		FROM cart_items ci
		JOIN listings l ON l.id = ci.listing_id
		WHERE ci.user_id = $1 AND ci.listing_id = $2`, userID, listingID)
	return scanCartLine(row)
}

func (r *Repo) CartLineByID(ctx context.Context, userID, lineID string) (CartLine, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+cartLineColumns+`
		FROM cart_items ci
		JOIN listings l ON l.id = ci.listing_id
		WHERE ci.user_id = $1 AND ci.id = $2`, userID, lineID)
	return scanCartLine(row)
}

// UpsertCartLine sets the absolute quantity for (user, listing); the caller has
// already validated it against available stock.
func (r *Repo) UpsertCartLine(ctx context.Context, userID, listingID string, qty int64) (CartLine, error) {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO cart_items (id, user_id, listing_id, quantity, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, listing_id) DO UPDATE SET quantity = $4`,
		uuid.NewString(), userID, listingID, qty, time.Now().UTC())
	if err != nil {
		return CartLine{}, err
	}
	return r.CartLineByListing(ctx, userID, listingID)
}

func (r *Repo) SetCartLineQuantity(ctx context.Context, userID, lineID string, qty int64) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE cart_items SET quantity = $3 WHERE user_id = $1 AND id = $2`,
		userID, lineID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) RemoveCartLine(ctx context.Context, userID, lineID string) error {
	ct, err := r.DB.Exec(ctx, `
		DELETE FROM cart_items WHERE user_id = $1 AND id = $2`, userID, lineID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) ClearCart(ctx context.Context, userID string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

func (r *Repo) Listing(ctx context.Context, id string) (Listing, error) {
	var l Listing
	err := r.DB.QueryRow(ctx, `
		SELECT id, seller_id, seller_username, title, price_cents, quantity,
		       status, is_active, created_at, updated_at
		FROM listings WHERE id = $1`, id).
		Scan(&l.ID, &l.SellerID, &l.SellerUsername, &l.Title, &l.PriceCents,
			&l.Quantity, &l.Status, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Listing{}, ErrNotFound
	}
	return l, err
}

func (r *Repo) SetListingStatus(ctx context.Context, id string, status ListingStatus) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE listings SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	return err
}

// CreateOrder persists the order and its snapshot items in one transaction.
func (r *Repo) CreateOrder(ctx context.Context, o Order, items []OrderItem) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, buyer_id, buyer_email, buyer_address, total_cents, intent_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.BuyerID, o.BuyerEmail, o.BuyerAddress, o.TotalCents, nullable(o.IntentID), o.Status, o.CreatedAt)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO order_items (id, order_id, listing_id, seller_id, quantity, status,
			                         snapshot_seller_id, snapshot_seller_username,
			                         snapshot_listing_id, snapshot_listing_title, snapshot_price_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			it.ID, it.OrderID, nullable(it.ListingID), it.SellerID, it.Quantity, it.Status,
			it.SnapshotSellerID, it.SnapshotSellerUsername,
			it.SnapshotListingID, it.SnapshotListingTitle, it.SnapshotPriceCents)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repo) Order(ctx context.Context, id string) (Order, error) {
	var o Order
	var intent *string
	err := r.DB.QueryRow(ctx, `
		SELECT id, buyer_id, buyer_email, buyer_address, total_cents, intent_id, status, created_at
		FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.BuyerID, &o.BuyerEmail, &o.BuyerAddress, &o.TotalCents, &intent, &o.Status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if intent != nil {
		o.IntentID = *intent
	}
	return o, err
}

func (r *Repo) OrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := r.DB.Query(ctx, orderItemsSQL, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderItems(rows)
}

func (r *Repo) SetOrderIntent(ctx context.Context, orderID, intentID string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET intent_id = $2 WHERE id = $1`, orderID, intentID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
