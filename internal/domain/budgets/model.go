package budgets

import (
	"time"

	"procurement-hub/internal/resource"
)

const (
	StatusPending   resource.Status = "pending"
	StatusApproved  resource.Status = "approved"
	StatusRejected  resource.Status = "rejected"
	StatusCancelled resource.Status = "cancelled"
)

// Budget es una partida presupuestaria de un proyecto.
// Remaining = Amount - Spent, recalculado en cada mutación.
type Budget struct {
	resource.Base

	ProjectID   int64   `json:"projectId" validate:"required,gt=0"`
	Name        string  `json:"name" validate:"required,max=120"`
	Category    string  `json:"category" validate:"required"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Spent       float64 `json:"spent" validate:"gte=0"`
	Remaining   float64 `json:"remaining"`
	FiscalYear  int     `json:"fiscalYear,omitempty" validate:"omitempty,gte=2000,lte=2100"`

	RequestedBy     int64      `json:"requestedBy"`
	ApprovedBy      int64      `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectedBy      int64      `json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}
