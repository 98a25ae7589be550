package market

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemRepo is an in-process store with the same contract as Repo, including the
// no-op semantics of the locked transitions. It backs tests and lets the API
// run without postgres.
type MemRepo struct {
	mu       sync.Mutex
	listings map[string]Listing
	carts    map[string]map[string]CartLine // userID -> listingID -> line
	orders   map[string]Order
	items    map[string][]OrderItem // orderID -> items
}

func NewMemRepo() *MemRepo {
	return &MemRepo{
		listings: map[string]Listing{},
		carts:    map[string]map[string]CartLine{},
		orders:   map[string]Order{},
		items:    map[string][]OrderItem{},
	}
}

func (m *MemRepo) PutListing(l Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.ID] = l
}

func (m *MemRepo) join(ln CartLine) CartLine {
	ln.Listing = m.listings[ln.ListingID]
	return ln
}

func (m *MemRepo) CartLines(_ context.Context, userID string) ([]CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []CartLine
	for _, ln := range m.carts[userID] {
		out = append(out, m.join(ln))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out, nil
}

func (m *MemRepo) CartLineByListing(_ context.Context, userID, listingID string) (CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ln, ok := m.carts[userID][listingID]; ok {
		return m.join(ln), nil
	}
	return CartLine{}, ErrNotFound
}

func (m *MemRepo) CartLineByID(_ context.Context, userID, lineID string) (CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ln := range m.carts[userID] {
		if ln.ID == lineID {
			return m.join(ln), nil
		}
	}
	return CartLine{}, ErrNotFound
}

func (m *MemRepo) UpsertCartLine(_ context.Context, userID, listingID string, qty int64) (CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.carts[userID] == nil {
		m.carts[userID] = map[string]CartLine{}
	}
	ln, ok := m.carts[userID][listingID]
	if !ok {
		ln = CartLine{ID: uuid.NewString(), ListingID: listingID, AddedAt: time.Now().UTC()}
	}
	ln.Quantity = qty
	m.carts[userID][listingID] = ln
	return m.join(ln), nil
}

func (m *MemRepo) SetCartLineQuantity(_ context.Context, userID, lineID string, qty int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for listingID, ln := range m.carts[userID] {
		if ln.ID == lineID {
			ln.Quantity = qty
			m.carts[userID][listingID] = ln
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemRepo) RemoveCartLine(_ context.Context, userID, lineID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for listingID, ln := range m.carts[userID] {
		if ln.ID == lineID {
			delete(m.carts[userID], listingID)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemRepo) ClearCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

func (m *MemRepo) Listing(_ context.Context, id string) (Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.listings[id]; ok {
		return l, nil
	}
	return Listing{}, ErrNotFound
}

func (m *MemRepo) SetListingStatus(_ context.Context, id string, status ListingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return ErrNotFound
	}
	l.Status = status
	l.UpdatedAt = time.Now().UTC()
	m.listings[id] = l
	return nil
}

func (m *MemRepo) CreateOrder(_ context.Context, o Order, items []OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	m.items[o.ID] = append([]OrderItem(nil), items...)
	return nil
}

func (m *MemRepo) Order(_ context.Context, id string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		return o, nil
	}
	return Order{}, ErrNotFound
}

func (m *MemRepo) OrderItems(_ context.Context, orderID string) ([]OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]OrderItem(nil), m.items[orderID]...), nil
}

func (m *MemRepo) SetOrderIntent(_ context.Context, orderID, intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.IntentID = intentID
	m.orders[orderID] = o
	return nil
}

func (m *MemRepo) SettleOrder(_ context.Context, orderID string) ([]OrderItem, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, false, ErrNotFound
	}
	if o.Status != OrderPending {
		return nil, false, nil
	}
	items := m.items[orderID]
	for i, it := range items {
		if l, ok := m.listings[it.ListingID]; ok {
			l.Quantity -= it.Quantity
			if l.Quantity < 0 {
				l.Quantity = 0
			}
			m.listings[it.ListingID] = l
		}
		if it.Status == ItemAwaitingPayment {
			items[i].Status = ItemAwaitingShipment
		}
	}
	o.Status = OrderPaid
	m.orders[orderID] = o
	return append([]OrderItem(nil), items...), true, nil
}

func (m *MemRepo) RefundOrder(_ context.Context, orderID string) ([]OrderItem, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, false, ErrNotFound
	}
	if o.Status != OrderPaid {
		return nil, false, nil
	}
	items := m.items[orderID]
	for i, it := range items {
		if l, ok := m.listings[it.ListingID]; ok {
			l.Quantity += it.Quantity
			if l.Status == ListingOutOfStock {
				l.Status = ListingInStock
			}
			m.listings[it.ListingID] = l
		}
		if items[i].Status == ItemAwaitingPayment || items[i].Status == ItemAwaitingShipment {
			items[i].Status = ItemCancelled
		}
	}
	o.Status = OrderCancelled
	m.orders[orderID] = o
	return append([]OrderItem(nil), items...), true, nil
}

func (m *MemRepo) CancelPendingOrder(_ context.Context, orderID string) ([]OrderItem, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, false, ErrNotFound
	}
	if o.Status != OrderPending {
		return nil, false, nil
	}
	items := m.items[orderID]
	for i, it := range items {
		if l, ok := m.listings[it.ListingID]; ok && l.Status == ListingOutOfStock {
			l.Status = ListingInStock
			m.listings[it.ListingID] = l
		}
		if items[i].Status == ItemAwaitingPayment {
			items[i].Status = ItemCancelled
		}
	}
	o.Status = OrderCancelled
	m.orders[orderID] = o
	return append([]OrderItem(nil), items...), true, nil
}

func (m *MemRepo) ExpiredPendingOrders(_ context.Context, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, o := range m.orders {
		if o.Status == OrderPending && o.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemRepo) PendingReservedTotals(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := map[string]int64{}
	for orderID, o := range m.orders {
		if o.Status != OrderPending {
			continue
		}
		for _, it := range m.items[orderID] {
			if it.ListingID != "" {
				totals[it.ListingID] += it.Quantity
			}
		}
	}
	return totals, nil
}

func (m *MemRepo) MarkItemsShipped(_ context.Context, orderID, sellerID string, itemIDs []string, trackingCode string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range itemIDs {
		wanted[id] = true
	}
	var n int64
	items := m.items[orderID]
	for i := range items {
		it := &items[i]
		if wanted[it.ID] && it.SellerID == sellerID && it.Status == ItemAwaitingShipment {
			it.Status = ItemInTransit
			it.TrackingCode = trackingCode
			n++
		}
	}
	return n, nil
}
