package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/packfinderz-discovery/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-discovery/pkg/errors"
	"github.com/angelmondragon/packfinderz-discovery/pkg/models"
)

// OrderCreator submits a single order to the marketplace.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error)
}

// CheckoutInput carries the buyer-supplied checkout fields.
type CheckoutInput struct {
	VendorID        string
	DeliveryAddress string
	PaymentMethod   enums.PaymentMethod
}

// OrderRequests builds one pending order per line, in cart order.
func (a *Aggregator) OrderRequests(input CheckoutInput) []models.OrderRequest {
	lines := a.Lines()
	out := make([]models.OrderRequest, 0, len(lines))
	for _, line := range lines {
		out = append(out, models.OrderRequest{
			VendorID:        input.VendorID,
			SupplierID:      line.SupplierID,
			ProductID:       line.ProductID,
			ProductName:     line.Name,
			Quantity:        line.Quantity,
			Price:           line.UnitPrice,
			TotalAmount:     line.Subtotal(),
			DeliveryAddress: strings.TrimSpace(input.DeliveryAddress),
			PaymentMethod:   input.PaymentMethod.Label(),
			Status:          enums.OrderStatusPending,
		})
	}
	return out
}

// Checkout places one order per line, one at a time, stopping at the first failure.
// The cart is reset only when every order was accepted; the orders placed before a
// failure are returned alongside the error.
func (a *Aggregator) Checkout(ctx context.Context, creator OrderCreator, input CheckoutInput) ([]models.Order, error) {
	if creator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order creator required")
	}
	if a.Len() == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}

	requests := a.OrderRequests(input)
	placed := make([]models.Order, 0, len(requests))
	for _, req := range requests {
		order, err := creator.CreateOrder(ctx, req)
		if err != nil {
			code := pkgerrors.CodeDependency
			if typed := pkgerrors.As(err); typed != nil {
				code = typed.Code()
			}
			return placed, pkgerrors.Wrap(code, err, fmt.Sprintf("place order for %s", req.ProductName))
		}
		if order != nil {
			placed = append(placed, *order)
		} else {
			placed = append(placed, models.Order{Status: string(req.Status)})
		}
	}

	a.Reset()
	return placed, nil
}
