package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-discovery/pkg/enums"
)

// OrderRequest is the payload for a single-line marketplace order.
type OrderRequest struct {
	VendorID        string            `json:"vendorId,omitempty"`
	SupplierID      string            `json:"supplierId"`
	ProductID       string            `json:"productId"`
	ProductName     string            `json:"productName"`
	Quantity        int               `json:"quantity"`
	Price           decimal.Decimal   `json:"price"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	DeliveryAddress string            `json:"deliveryAddress"`
	PaymentMethod   string            `json:"paymentMethod"`
	Status          enums.OrderStatus `json:"status"`
}

// Order is the marketplace's acknowledgement of a created order.
type Order struct {
	ID     FlexString `json:"id"`
	Status string     `json:"status,omitempty"`
}

// MarshalJSON emits monetary fields as JSON numbers, which the order endpoint requires.
func (o OrderRequest) MarshalJSON() ([]byte, error) {
	type alias OrderRequest
	return json.Marshal(struct {
		alias
		Price       json.Number `json:"price"`
		TotalAmount json.Number `json:"totalAmount"`
	}{
		alias:       alias(o),
		Price:       json.Number(o.Price.String()),
		TotalAmount: json.Number(o.TotalAmount.String()),
	})
}
