// Package payments: pagos a proveedores, normalmente contra una orden de compra.
package payments

import (
	"cmp"
	"time"

	"procurement-hub/internal/resource"
)

const (
	StatusPending   resource.Status = "pending"
	StatusApproved  resource.Status = "approved"
	StatusRejected  resource.Status = "rejected"
	StatusCompleted resource.Status = "completed"
	StatusCancelled resource.Status = "cancelled"
)

type Payment struct {
	resource.Base

	PurchaseOrderID int64      `json:"purchaseOrderId,omitempty" validate:"gte=0"`
	ProjectID       int64      `json:"projectId" validate:"required,gt=0"`
	Payee           string     `json:"payee" validate:"required,max=120"`
	Concept         string     `json:"concept" validate:"required,max=200"`
	Amount          float64    `json:"amount" validate:"gt=0"`
	Method          string     `json:"method" validate:"required,oneof=transfer check cash card"`
	Reference       string     `json:"reference,omitempty"`
	DueDate         *time.Time `json:"dueDate,omitempty"`

	RequestedBy     int64      `json:"requestedBy"`
	ApprovedBy      int64      `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectedBy      int64      `json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
	ProcessedBy     int64      `json:"processedBy,omitempty"`
}

type Service = resource.Service[Payment, *Payment]

func NewService(store resource.Store[Payment], deps resource.Deps) *Service {
	return resource.NewService[Payment](Spec(), store, deps)
}

func Spec() resource.Spec[Payment] {
	staff := resource.Staff
	return resource.Spec[Payment]{
		Name:      "payments",
		Singular:  "payment",
		Label:     "Payment",
		Statuses:  []resource.Status{StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusCancelled},
		Protected: []resource.Status{StatusCompleted},
		Locked:    []resource.Status{StatusRejected, StatusCompleted, StatusCancelled},
		Immutable: []string{"requestedBy", "approvedBy", "approvedAt", "rejectedBy", "rejectedAt",
			"rejectionReason", "paidAt", "processedBy"},
		Notify: true,
		Policy: resource.Policy{
			resource.OpList:   {Roles: resource.Everyone},
			resource.OpGet:    {Roles: resource.Everyone},
			resource.OpCreate: {Roles: staff},
			resource.OpUpdate: {Roles: staff, Owner: true},
			resource.OpDelete: {Roles: resource.Admins},
		},
		Transitions: []resource.Transition[Payment]{
			{
				Action: "approve", From: []resource.Status{StatusPending}, To: StatusApproved, Roles: staff,
				Stamp: func(p *Payment, c resource.Change) {
					at := c.At
					p.ApprovedBy, p.ApprovedAt = c.Actor.ID, &at
				},
			},
			{
				Action: "reject", From: []resource.Status{StatusPending}, To: StatusRejected, Roles: staff,
				Stamp: func(p *Payment, c resource.Change) {
					at := c.At
					p.RejectedBy, p.RejectedAt = c.Actor.ID, &at
					p.RejectionReason = c.Reason
				},
			},
			{
				Action: "complete", From: []resource.Status{StatusApproved}, To: StatusCompleted, Roles: staff,
				Stamp: func(p *Payment, c resource.Change) {
					at := c.At
					p.PaidAt, p.ProcessedBy = &at, c.Actor.ID
				},
			},
			{Action: "cancel", From: []resource.Status{StatusPending, StatusApproved}, To: StatusCancelled, Roles: resource.Admins},
		},
		Owner:    func(p *Payment) int64 { return p.RequestedBy },
		SetOwner: func(p *Payment, id int64) { p.RequestedBy = id },
		Title:    func(p *Payment) string { return p.Payee + " - " + p.Concept },
		Filters: map[string]resource.Filter[Payment]{
			"projectId":       resource.EqualsInt(func(p *Payment) int64 { return p.ProjectID }),
			"purchaseOrderId": resource.EqualsInt(func(p *Payment) int64 { return p.PurchaseOrderID }),
			"method":          resource.EqualsFold(func(p *Payment) string { return p.Method }),
			"payee":           resource.EqualsFold(func(p *Payment) string { return p.Payee }),
		},
		SearchFields: func(p *Payment) []string { return []string{p.Payee, p.Concept, p.Reference} },
		SortKeys: map[string]func(a, b *Payment) int{
			"amount": func(a, b *Payment) int { return cmp.Compare(a.Amount, b.Amount) },
			"payee":  func(a, b *Payment) int { return cmp.Compare(a.Payee, b.Payee) },
		},
		// from/to filtran por fecha de pago si existe
		DateField: func(p *Payment) time.Time {
			if p.PaidAt != nil {
				return *p.PaidAt
			}
			return p.CreatedAt
		},
		DefaultLimit: 20,
		Seed:         seed,
	}
}

func seed(now time.Time) []Payment {
	at := func(days int, s resource.Status) resource.Base {
		return resource.Base{Status: s, CreatedAt: now.AddDate(0, 0, -days)}
	}
	paid := now.AddDate(0, 0, -20)
	due := now.AddDate(0, 0, 10)
	return []Payment{
		{Base: at(28, StatusCompleted), PurchaseOrderID: 1, ProjectID: 1, Payee: "Cementos Bío Bío",
			Concept: "Factura 4411 cemento", Amount: 6000, Method: "transfer", Reference: "TRX-88121",
			RequestedBy: 2, ApprovedBy: 1, PaidAt: &paid, ProcessedBy: 2},
		{Base: at(8, StatusApproved), PurchaseOrderID: 2, ProjectID: 1, Payee: "Aceros del Pacífico",
			Concept: "Anticipo 50% acero", Amount: 5880, Method: "transfer", DueDate: &due, RequestedBy: 2, ApprovedBy: 1},
		{Base: at(2, StatusPending), ProjectID: 2, Payee: "Topografía Austral",
			Concept: "Levantamiento topográfico", Amount: 1450, Method: "check", DueDate: &due, RequestedBy: 2},
	}
}
