package market

import "testing"

func TestOrderTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderPending, OrderPaid, true},
		{OrderPending, OrderCancelled, true},
		{OrderPaid, OrderCancelled, true}, // refund
		{OrderPaid, OrderPending, false},
		{OrderCancelled, OrderPaid, false},
	}
	for _, c := range cases {
		if got := CanTransitionOrder(c.from, c.to); got != c.ok {
			t.Errorf("CanTransitionOrder(%s, %s) = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestItemTransitions(t *testing.T) {
	cases := []struct {
		from, to ShippingStatus
		ok       bool
	}{
		{ItemAwaitingPayment, ItemAwaitingShipment, true},
		{ItemAwaitingShipment, ItemInTransit, true},
		{ItemInTransit, ItemOutForDelivery, true},
		{ItemOutForDelivery, ItemDelivered, true},
		{ItemAwaitingShipment, ItemCancelled, true},
		{ItemInTransit, ItemCancelled, false},
		{ItemDelivered, ItemInTransit, false},
		{ItemCancelled, ItemAwaitingPayment, false},
	}
	for _, c := range cases {
		if got := CanTransitionItem(c.from, c.to); got != c.ok {
			t.Errorf("CanTransitionItem(%s, %s) = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}
