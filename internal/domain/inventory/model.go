package inventory

import (
	"time"

	"procurement-hub/internal/resource"
)

const (
	StatusActive   resource.Status = "active"
	StatusInactive resource.Status = "inactive"
)

// OpAdjust es la operación de ajuste de stock (entrada/salida).
const OpAdjust resource.Operation = "adjust"

type Item struct {
	resource.Base

	SKU         string  `json:"sku" validate:"required,max=40"`
	Name        string  `json:"name" validate:"required,max=120"`
	Category    string  `json:"category" validate:"required"`
	Unit        string  `json:"unit" validate:"omitempty,max=16"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
	MinQuantity float64 `json:"minQuantity" validate:"gte=0"`
	UnitCost    float64 `json:"unitCost" validate:"gte=0"`
	TotalValue  float64 `json:"totalValue"`
	Location    string  `json:"location,omitempty"`
	Supplier    string  `json:"supplier,omitempty"`
	ProjectID   int64   `json:"projectId,omitempty" validate:"gte=0"`

	LastAdjustedAt *time.Time `json:"lastAdjustedAt,omitempty"`
	LastAdjustedBy int64      `json:"lastAdjustedBy,omitempty"`
}

// LowStock: la cantidad llegó al mínimo o por debajo.
func (i *Item) LowStock() bool {
	return i.Quantity <= i.MinQuantity
}
