package catalog

import (
	"github.com/angelmondragon/packfinderz-discovery/pkg/geo"
	"github.com/angelmondragon/packfinderz-discovery/pkg/models"
)

// AnnotatedProduct is a product plus the fields derived from the viewer location.
// The annotation is never written back onto the product.
type AnnotatedProduct struct {
	models.Product
	DistanceKm            *float64 `json:"distanceKm"`
	EstimatedDeliveryDays int      `json:"estimatedDeliveryDays"`
}

// SupplierPoint returns the supplier location, or nil when either coordinate is missing.
func SupplierPoint(p models.Product) *geo.Point {
	return geo.NewPoint(p.SupplierLat, p.SupplierLng)
}

// AnnotateProduct derives distance and delivery estimate for a single product.
func AnnotateProduct(p models.Product, viewer *geo.Point) AnnotatedProduct {
	distance := geo.Distance(viewer, SupplierPoint(p))
	return AnnotatedProduct{
		Product:               p,
		DistanceKm:            distance,
		EstimatedDeliveryDays: geo.EstimateDeliveryDays(distance),
	}
}

// Annotate derives annotations for every product without touching the input slice.
func Annotate(products []models.Product, viewer *geo.Point) []AnnotatedProduct {
	out := make([]AnnotatedProduct, len(products))
	for i, p := range products {
		out[i] = AnnotateProduct(p, viewer)
	}
	return out
}
