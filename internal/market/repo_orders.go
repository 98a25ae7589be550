package market

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

const orderItemsSQL = `
	SELECT id, order_id, listing_id, seller_id, quantity, status, tracking_code,
	       snapshot_seller_id, snapshot_seller_username,
	       snapshot_listing_id, snapshot_listing_title, snapshot_price_cents
	FROM order_items WHERE order_id = $1 ORDER BY id`

func scanOrderItems(rows pgx.Rows) ([]OrderItem, error) {
	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		var listingID, tracking *string
		if err := rows.Scan(&it.ID, &it.OrderID, &listingID, &it.SellerID, &it.Quantity,
			&it.Status, &tracking,
			&it.SnapshotSellerID, &it.SnapshotSellerUsername,
			&it.SnapshotListingID, &it.SnapshotListingTitle, &it.SnapshotPriceCents); err != nil {
			return nil, err
		}
		if listingID != nil {
			it.ListingID = *listingID
		}
		if tracking != nil {
			it.TrackingCode = *tracking
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// lockOrder takes the order's row lock and reports its current status.
// Settlement, refund and expiry all funnel through this lock, so two of them
// can never interleave on one order.
func lockOrder(ctx context.Context, tx pgx.Tx, orderID string) (OrderStatus, error) {
	var status OrderStatus
	err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return status, err
}

// SettleOrder makes the payment durable: under the order's row lock it debits
// each listing's stock, moves items to AWAITING_SHIPMENT and marks the order
// PAID. Anything other than a PENDING order is reported as settled=false and
// left untouched, which is how duplicate webhook deliveries resolve.
func (r *Repo) SettleOrder(ctx context.Context, orderID string) ([]OrderItem, bool, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	status, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, false, err
	}
	if status != OrderPending {
		return nil, false, nil
	}

	rows, err := tx.Query(ctx, orderItemsSQL, orderID)
	if err != nil {
		return nil, false, err
	}
	items, err := scanOrderItems(rows)
	rows.Close()
	if err != nil {
		return nil, false, err
	}

	for _, it := range items {
		if it.ListingID == "" {
			continue // listing deleted between reservation and settlement
		}
		_, err := tx.Exec(ctx, `
			UPDATE listings SET quantity = GREATEST(quantity - $2, 0), updated_at = now()
			WHERE id = $1`, it.ListingID, it.Quantity)
		if err != nil {
			return nil, false, err
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE order_items SET status = $2 WHERE order_id = $1 AND status = $3`,
		orderID, ItemAwaitingShipment, ItemAwaitingPayment); err != nil {
		return nil, false, err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE orders SET status = $2 WHERE id = $1`, orderID, OrderPaid); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return items, true, nil
}

// RefundOrder reverses a settled order: restores each listing's stock, flips
// OUT_OF_STOCK listings back, cancels the items and the order. Only PAID orders
// qualify; the refunded=false no-op covers races with a concurrent resolution.
// The reservation counter is not touched here: a PAID order's hold was already
// released at settlement.
func (r *Repo) RefundOrder(ctx context.Context, orderID string) ([]OrderItem, bool, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	status, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, false, err
	}
	if status != OrderPaid {
		return nil, false, nil
	}

	rows, err := tx.Query(ctx, orderItemsSQL, orderID)
	if err != nil {
		return nil, false, err
	}
	items, err := scanOrderItems(rows)
	rows.Close()
	if err != nil {
		return nil, false, err
	}

	for _, it := range items {
		if it.ListingID == "" {
			continue
		}
		if _, err := tx.Exec(ctx, `
			UPDATE listings SET quantity = quantity + $2, updated_at = now()
			WHERE id = $1`, it.ListingID, it.Quantity); err != nil {
			return nil, false, err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE listings SET status = $2, updated_at = now()
			WHERE id = $1 AND status = $3`,
			it.ListingID, ListingInStock, ListingOutOfStock); err != nil {
			return nil, false, err
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE order_items SET status = $2 WHERE order_id = $1 AND status = ANY($3)`,
		orderID, ItemCancelled, []ShippingStatus{ItemAwaitingPayment, ItemAwaitingShipment}); err != nil {
		return nil, false, err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE orders SET status = $2 WHERE id = $1`, orderID, OrderCancelled); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return items, true, nil
}

// CancelPendingOrder is the expiry path: the order never settled, so durable
// stock is untouched; items are cancelled and OUT_OF_STOCK listings flipped
// back. The caller releases the reservation counters afterwards.
func (r *Repo) CancelPendingOrder(ctx context.Context, orderID string) ([]OrderItem, bool, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	status, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, false, err
	}
	if status != OrderPending {
		return nil, false, nil
	}

	rows, err := tx.Query(ctx, orderItemsSQL, orderID)
	if err != nil {
		return nil, false, err
	}
	items, err := scanOrderItems(rows)
	rows.Close()
	if err != nil {
		return nil, false, err
	}

	for _, it := range items {
		if it.ListingID == "" {
			continue
		}
		if _, err := tx.Exec(ctx, `
			UPDATE listings SET status = $2, updated_at = now()
			WHERE id = $1 AND status = $3`,
			it.ListingID, ListingInStock, ListingOutOfStock); err != nil {
			return nil, false, err
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE order_items SET status = $2 WHERE order_id = $1 AND status = $3`,
		orderID, ItemCancelled, ItemAwaitingPayment); err != nil {
		return nil, false, err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE orders SET status = $2 WHERE id = $1`, orderID, OrderCancelled); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func (r *Repo) ExpiredPendingOrders(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id FROM orders WHERE status = $1 AND created_at < $2 ORDER BY created_at`,
		OrderPending, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PendingReservedTotals recomputes, per listing, the quantity held by all
// currently-PENDING orders. This is the durable truth the reservation cache is
// rebuilt from.
func (r *Repo) PendingReservedTotals(ctx context.Context) (map[string]int64, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT oi.listing_id, SUM(oi.quantity)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = $1 AND oi.listing_id IS NOT NULL
		GROUP BY oi.listing_id`, OrderPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := map[string]int64{}
	for rows.Next() {
		var id string
		var sum int64
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, err
		}
		totals[id] = sum
	}
	return totals, rows.Err()
}

// MarkItemsShipped moves the seller's named items to IN_TRANSIT with the
// tracking code. Items not currently AWAITING_SHIPMENT are skipped silently.
func (r *Repo) MarkItemsShipped(ctx context.Context, orderID, sellerID string, itemIDs []string, trackingCode string) (int64, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE order_items SET status = $1, tracking_code = $2
		WHERE order_id = $3 AND seller_id = $4 AND id = ANY($5) AND status = $6`,
		ItemInTransit, trackingCode, orderID, sellerID, itemIDs, ItemAwaitingShipment)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
