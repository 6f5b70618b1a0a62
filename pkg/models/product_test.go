package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductUnmarshalPriceFallback(t *testing.T) {
	var withUnit, withPrice, missing Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","name":"Onion","unitPrice":50,"price":70}`), &withUnit))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p2","name":"Rice","price":"42.50"}`), &withPrice))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p3","name":"Salt"}`), &missing))

	assert.True(t, withUnit.UnitPrice.Equal(decimal.NewFromInt(50)))
	assert.True(t, withPrice.UnitPrice.Equal(decimal.RequireFromString("42.5")))
	assert.True(t, missing.UnitPrice.IsZero())
}

func TestProductUnmarshalIdentifiersAndOptionalFields(t *testing.T) {
	raw := `{
		"id": 17,
		"name": "Turmeric",
		"category": "Spices",
		"stock": 12,
		"unitType": "kg",
		"supplierId": 9,
		"supplierLat": 12.9,
		"supplierLng": 77.6,
		"image": "https://cdn/turmeric.png"
	}`
	var p Product
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, "17", p.ID)
	assert.Equal(t, "9", p.SupplierID)
	require.NotNil(t, p.SupplierLat)
	assert.Equal(t, 12.9, *p.SupplierLat)
	require.NotNil(t, p.ImageURL)
	assert.Equal(t, "https://cdn/turmeric.png", *p.ImageURL)
	assert.Nil(t, p.Description)
	assert.Equal(t, 12, p.Stock)
}

func TestProductUnmarshalClampsNegatives(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","unitPrice":-3,"stock":-1,"supplierLat":null}`), &p))
	assert.True(t, p.UnitPrice.IsZero())
	assert.Equal(t, 0, p.Stock)
	assert.Nil(t, p.SupplierLat)
}

func TestProductUnmarshalLenientStock(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{raw: `10`, want: 10},
		{raw: `10.0`, want: 10},
		{raw: `2.9`, want: 2},
		{raw: `"7"`, want: 7},
		{raw: `1e2`, want: 100},
		{raw: `-3.5`, want: 0},
		{raw: `"lots"`, want: 0},
		{raw: `null`, want: 0},
		{raw: `true`, want: 0},
	}
	for _, tt := range tests {
		var p Product
		require.NoError(t, json.Unmarshal([]byte(`{"id":"x","stock":`+tt.raw+`}`), &p), "stock=%s", tt.raw)
		assert.Equal(t, tt.want, p.Stock, "stock=%s", tt.raw)
	}
}

func TestSupplierDisplayName(t *testing.T) {
	assert.Equal(t, "Fresh Farms", Supplier{Name: "Fresh Farms", Email: "ff@x.io"}.DisplayName("s1"))
	assert.Equal(t, "ff@x.io", Supplier{Email: "ff@x.io"}.DisplayName("s1"))
	assert.Equal(t, "s1", Supplier{}.DisplayName("s1"))
}

func TestOrderRequestMarshalsNumbers(t *testing.T) {
	req := OrderRequest{
		SupplierID:  "s1",
		ProductID:   "p1",
		ProductName: "Onion",
		Quantity:    2,
		Price:       decimal.RequireFromString("12.5"),
		TotalAmount: decimal.NewFromInt(25),
		Status:      "PENDING",
	}
	raw, err := json.Marshal(req)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 12.5, decoded["price"])
	assert.Equal(t, 25.0, decoded["totalAmount"])
	assert.Equal(t, "PENDING", decoded["status"])
	assert.Equal(t, 2.0, decoded["quantity"])
}
