package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a supplier listing as returned by the marketplace catalog endpoint.
// Products are immutable once fetched; derived fields live on catalog.AnnotatedProduct.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Stock       int             `json:"stock"`
	UnitType    string          `json:"unitType,omitempty"`
	SupplierID  string          `json:"supplierId,omitempty"`
	SupplierLat *float64        `json:"supplierLat,omitempty"`
	SupplierLng *float64        `json:"supplierLng,omitempty"`
	ImageURL    *string         `json:"imageUrl,omitempty"`
	Description *string         `json:"description,omitempty"`
}

type productWire struct {
	ID          FlexString       `json:"id"`
	Name        string           `json:"name"`
	Category    string           `json:"category"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"`
	Price       *decimal.Decimal `json:"price"`
	Stock       json.RawMessage  `json:"stock"`
	UnitType    string           `json:"unitType"`
	SupplierID  FlexString       `json:"supplierId"`
	SupplierLat *float64         `json:"supplierLat"`
	SupplierLng *float64         `json:"supplierLng"`
	ImageURL    *string          `json:"imageUrl"`
	Image       *string          `json:"image"`
	Description *string          `json:"description"`
}

// UnmarshalJSON accepts the marketplace's loose record shape: the price may arrive as
// unitPrice or price (missing means zero), ids may be numeric, stock may be any
// number or numeric string, and the image may be keyed imageUrl or image.
func (p *Product) UnmarshalJSON(data []byte) error {
	var wire productWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode product: %w", err)
	}

	price := decimal.Zero
	switch {
	case wire.UnitPrice != nil:
		price = *wire.UnitPrice
	case wire.Price != nil:
		price = *wire.Price
	}
	if price.IsNegative() {
		price = decimal.Zero
	}

	stock := parseStock(wire.Stock)

	image := wire.ImageURL
	if image == nil || *image == "" {
		image = wire.Image
	}
	if image != nil && *image == "" {
		image = nil
	}

	*p = Product{
		ID:          string(wire.ID),
		Name:        wire.Name,
		Category:    wire.Category,
		UnitPrice:   price,
		Stock:       stock,
		UnitType:    wire.UnitType,
		SupplierID:  string(wire.SupplierID),
		SupplierLat: wire.SupplierLat,
		SupplierLng: wire.SupplierLng,
		ImageURL:    image,
		Description: wire.Description,
	}
	return nil
}

// parseStock truncates any numeric stock value to a non-negative int. Missing or
// unreadable stock is zero.
func parseStock(raw json.RawMessage) int {
	value := string(bytes.Trim(bytes.TrimSpace(raw), `"`))
	if value == "" || value == "null" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}
