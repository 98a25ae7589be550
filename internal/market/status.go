package market

type ListingStatus string

const (
	ListingInStock    ListingStatus = "IN_STOCK"
	ListingOutOfStock ListingStatus = "OUT_OF_STOCK"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
)

// CANCELLED is terminal; an order never re-enters PENDING. The PAID ->
// CANCELLED edge is the refund path.
var validOrderNext = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:   {OrderPaid: true, OrderCancelled: true},
	OrderPaid:      {OrderCancelled: true},
	OrderCancelled: {},
}

func CanTransitionOrder(from, to OrderStatus) bool {
	return validOrderNext[from][to]
}

type ShippingStatus string

const (
	ItemAwaitingPayment  ShippingStatus = "AWAITING_PAYMENT"
	ItemAwaitingShipment ShippingStatus = "AWAITING_SHIPMENT"
	ItemInTransit        ShippingStatus = "IN_TRANSIT"
	ItemOutForDelivery   ShippingStatus = "OUT_FOR_DELIVERY"
	ItemDelivered        ShippingStatus = "DELIVERED"
	ItemCancelled        ShippingStatus = "CANCELLED"
)

var validItemNext = map[ShippingStatus]map[ShippingStatus]bool{
	ItemAwaitingPayment:  {ItemAwaitingShipment: true, ItemCancelled: true},
	ItemAwaitingShipment: {ItemInTransit: true, ItemCancelled: true},
	ItemInTransit:        {ItemOutForDelivery: true},
	ItemOutForDelivery:   {ItemDelivered: true},
	ItemDelivered:        {},
	ItemCancelled:        {},
}

func CanTransitionItem(from, to ShippingStatus) bool {
	return validItemNext[from][to]
}
