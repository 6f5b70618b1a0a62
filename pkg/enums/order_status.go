package enums

// OrderStatus is the lifecycle state the marketplace assigns to a created order.
type OrderStatus string

const (
	// OrderStatusPending is the only status a buyer can submit.
	OrderStatusPending OrderStatus = "PENDING"
)

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}
