// Package quotations: cotizaciones de proveedores para un proyecto.
package quotations

import (
	"cmp"
	"time"

	"procurement-hub/internal/resource"
)

const (
	StatusDraft    resource.Status = "draft"
	StatusPending  resource.Status = "pending"
	StatusApproved resource.Status = "approved"
	StatusRejected resource.Status = "rejected"
)

type Quotation struct {
	resource.Base

	ProjectID   int64      `json:"projectId" validate:"required,gt=0"`
	Supplier    string     `json:"supplier" validate:"required,max=120"`
	Item        string     `json:"item" validate:"required,max=200"`
	Description string     `json:"description,omitempty"`
	Quantity    float64    `json:"quantity" validate:"gt=0"`
	UnitPrice   float64    `json:"unitPrice" validate:"gt=0"`
	TotalValue  float64    `json:"totalValue"`
	Currency    string     `json:"currency" validate:"omitempty,len=3"`
	ValidUntil  *time.Time `json:"validUntil,omitempty"`
	Notes       string     `json:"notes,omitempty"`

	CreatedBy       int64      `json:"createdBy"`
	SubmittedAt     *time.Time `json:"submittedAt,omitempty"`
	ApprovedBy      int64      `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectedBy      int64      `json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}

type Service = resource.Service[Quotation, *Quotation]

func NewService(store resource.Store[Quotation], deps resource.Deps) *Service {
	return resource.NewService[Quotation](Spec(), store, deps)
}

func Spec() resource.Spec[Quotation] {
	staff := resource.Staff
	return resource.Spec[Quotation]{
		Name:      "quotations",
		Singular:  "quotation",
		Label:     "Quotation",
		Statuses:  []resource.Status{StatusDraft, StatusPending, StatusApproved, StatusRejected},
		Protected: []resource.Status{StatusApproved},
		Locked:    []resource.Status{StatusApproved, StatusRejected},
		Immutable: []string{"createdBy", "totalValue", "submittedAt", "approvedBy", "approvedAt", "rejectedBy", "rejectedAt", "rejectionReason"},
		Notify:    true,
		Policy: resource.Policy{
			resource.OpList:   {Roles: resource.Everyone},
			resource.OpGet:    {Roles: resource.Everyone},
			resource.OpCreate: {Roles: resource.Everyone},
			resource.OpUpdate: {Roles: staff, Owner: true},
			resource.OpDelete: {Roles: resource.Admins, Owner: true},
		},
		Transitions: []resource.Transition[Quotation]{
			{
				Action: "submit", From: []resource.Status{StatusDraft}, To: StatusPending, Roles: staff, Owner: true,
				Stamp: func(q *Quotation, c resource.Change) {
					at := c.At
					q.SubmittedAt = &at
				},
			},
			{
				Action: "approve", From: []resource.Status{StatusPending}, To: StatusApproved, Roles: staff,
				Stamp: func(q *Quotation, c resource.Change) {
					at := c.At
					q.ApprovedBy, q.ApprovedAt = c.Actor.ID, &at
				},
			},
			{
				Action: "reject", From: []resource.Status{StatusPending}, To: StatusRejected, Roles: staff,
				Stamp: func(q *Quotation, c resource.Change) {
					at := c.At
					q.RejectedBy, q.RejectedAt = c.Actor.ID, &at
					q.RejectionReason = c.Reason
				},
			},
		},
		Owner:    func(q *Quotation) int64 { return q.CreatedBy },
		SetOwner: func(q *Quotation, id int64) { q.CreatedBy = id },
		Title:    func(q *Quotation) string { return q.Supplier + " - " + q.Item },
		Derive: func(q *Quotation) {
			q.TotalValue = q.Quantity * q.UnitPrice
			if q.Currency == "" {
				q.Currency = "USD"
			}
		},
		Filters: map[string]resource.Filter[Quotation]{
			"projectId": resource.EqualsInt(func(q *Quotation) int64 { return q.ProjectID }),
			"supplier":  resource.EqualsFold(func(q *Quotation) string { return q.Supplier }),
			"createdBy": resource.EqualsInt(func(q *Quotation) int64 { return q.CreatedBy }),
		},
		SearchFields: func(q *Quotation) []string { return []string{q.Supplier, q.Item, q.Description, q.Notes} },
		SortKeys: map[string]func(a, b *Quotation) int{
			"totalValue": func(a, b *Quotation) int { return cmp.Compare(a.TotalValue, b.TotalValue) },
			"supplier":   func(a, b *Quotation) int { return cmp.Compare(a.Supplier, b.Supplier) },
		},
		DefaultLimit: 10,
		Seed:         seed,
	}
}

func seed(now time.Time) []Quotation {
	at := func(days int, s resource.Status) resource.Base {
		return resource.Base{Status: s, CreatedAt: now.AddDate(0, 0, -days)}
	}
	valid := now.AddDate(0, 1, 0)
	return []Quotation{
		{Base: at(40, StatusApproved), ProjectID: 1, Supplier: "Cementos Bío Bío", Item: "Cemento Portland 25kg",
			Quantity: 800, UnitPrice: 7.5, Currency: "USD", CreatedBy: 3, ApprovedBy: 2},
		{Base: at(20, StatusPending), ProjectID: 1, Supplier: "Aceros del Pacífico", Item: "Barra de acero 12mm",
			Quantity: 1200, UnitPrice: 9.8, Currency: "USD", ValidUntil: &valid, CreatedBy: 3},
		{Base: at(6, StatusDraft), ProjectID: 2, Supplier: "Ferretería Central", Item: "Pintura látex blanca",
			Quantity: 60, UnitPrice: 32, Currency: "USD", CreatedBy: 4},
	}
}
