// Package purchaseorders: órdenes de compra emitidas a proveedores.
package purchaseorders

import (
	"cmp"
	"strings"
	"time"

	"procurement-hub/internal/resource"

	"github.com/google/uuid"
)

const (
	StatusPending   resource.Status = "pending"
	StatusApproved  resource.Status = "approved"
	StatusRejected  resource.Status = "rejected"
	StatusCompleted resource.Status = "completed"
	StatusCancelled resource.Status = "cancelled"
)

type PurchaseOrder struct {
	resource.Base

	OrderNumber  string     `json:"orderNumber" validate:"max=40"`
	ProjectID    int64      `json:"projectId" validate:"required,gt=0"`
	QuotationID  int64      `json:"quotationId,omitempty" validate:"gte=0"`
	Supplier     string     `json:"supplier" validate:"required,max=120"`
	Item         string     `json:"item" validate:"required,max=200"`
	Quantity     float64    `json:"quantity" validate:"gt=0"`
	UnitCost     float64    `json:"unitCost" validate:"gt=0"`
	TotalValue   float64    `json:"totalValue"`
	DeliveryDate *time.Time `json:"deliveryDate,omitempty"`
	Priority     string     `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Notes        string     `json:"notes,omitempty"`

	RequestedBy     int64      `json:"requestedBy"`
	ApprovedBy      int64      `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectedBy      int64      `json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	DeliveredAt     *time.Time `json:"deliveredAt,omitempty"`
	CancelledAt     *time.Time `json:"cancelledAt,omitempty"`
}

type Service = resource.Service[PurchaseOrder, *PurchaseOrder]

func NewService(store resource.Store[PurchaseOrder], deps resource.Deps) *Service {
	return resource.NewService[PurchaseOrder](Spec(), store, deps)
}

// NewOrderNumber genera un número legible cuando el cliente no envía uno.
func NewOrderNumber() string {
	return "PO-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func Spec() resource.Spec[PurchaseOrder] {
	staff := resource.Staff
	stamp := func(at time.Time) *time.Time { return &at }
	return resource.Spec[PurchaseOrder]{
		Name:      "purchase-orders",
		Singular:  "purchaseOrder",
		Label:     "Purchase order",
		Statuses:  []resource.Status{StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusCancelled},
		Protected: []resource.Status{StatusApproved, StatusCompleted},
		Locked:    []resource.Status{StatusRejected, StatusCompleted, StatusCancelled},
		Immutable: []string{"orderNumber", "requestedBy", "totalValue", "approvedBy", "approvedAt",
			"rejectedBy", "rejectedAt", "rejectionReason", "deliveredAt", "cancelledAt"},
		Notify: true,
		Policy: resource.Policy{
			resource.OpList:   {Roles: resource.Everyone},
			resource.OpGet:    {Roles: resource.Everyone},
			resource.OpCreate: {Roles: resource.Everyone},
			resource.OpUpdate: {Roles: staff, Owner: true},
			resource.OpDelete: {Roles: resource.Admins},
		},
		Transitions: []resource.Transition[PurchaseOrder]{
			{
				Action: "approve", From: []resource.Status{StatusPending}, To: StatusApproved, Roles: staff,
				Stamp: func(po *PurchaseOrder, c resource.Change) { po.ApprovedBy, po.ApprovedAt = c.Actor.ID, stamp(c.At) },
			},
			{
				Action: "reject", From: []resource.Status{StatusPending}, To: StatusRejected, Roles: staff,
				Stamp: func(po *PurchaseOrder, c resource.Change) {
					po.RejectedBy, po.RejectedAt = c.Actor.ID, stamp(c.At)
					po.RejectionReason = c.Reason
				},
			},
			{
				Action: "complete", From: []resource.Status{StatusApproved}, To: StatusCompleted, Roles: staff,
				Stamp: func(po *PurchaseOrder, c resource.Change) { po.DeliveredAt = stamp(c.At) },
			},
			{
				Action: "cancel", From: []resource.Status{StatusPending, StatusApproved}, To: StatusCancelled, Roles: resource.Admins,
				Stamp: func(po *PurchaseOrder, c resource.Change) { po.CancelledAt = stamp(c.At) },
			},
		},
		Owner:    func(po *PurchaseOrder) int64 { return po.RequestedBy },
		SetOwner: func(po *PurchaseOrder, id int64) { po.RequestedBy = id },
		Title:    func(po *PurchaseOrder) string { return po.OrderNumber + " " + po.Item },
		Derive: func(po *PurchaseOrder) {
			po.TotalValue = po.Quantity * po.UnitCost
			if po.OrderNumber == "" {
				po.OrderNumber = NewOrderNumber()
			}
			if po.Priority == "" {
				po.Priority = "normal"
			}
		},
		UniqueKey: func(po *PurchaseOrder) string { return po.OrderNumber },
		Filters: map[string]resource.Filter[PurchaseOrder]{
			"projectId":   resource.EqualsInt(func(po *PurchaseOrder) int64 { return po.ProjectID }),
			"quotationId": resource.EqualsInt(func(po *PurchaseOrder) int64 { return po.QuotationID }),
			"supplier":    resource.EqualsFold(func(po *PurchaseOrder) string { return po.Supplier }),
			"priority":    resource.EqualsFold(func(po *PurchaseOrder) string { return po.Priority }),
			"requestedBy": resource.EqualsInt(func(po *PurchaseOrder) int64 { return po.RequestedBy }),
		},
		SearchFields: func(po *PurchaseOrder) []string {
			return []string{po.OrderNumber, po.Supplier, po.Item, po.Notes}
		},
		SortKeys: map[string]func(a, b *PurchaseOrder) int{
			"totalValue":   func(a, b *PurchaseOrder) int { return cmp.Compare(a.TotalValue, b.TotalValue) },
			"orderNumber":  func(a, b *PurchaseOrder) int { return cmp.Compare(a.OrderNumber, b.OrderNumber) },
			"deliveryDate": compareDates,
		},
		DefaultLimit: 20,
		Seed:         seed,
	}
}

// compareDates: sin fecha va al final.
func compareDates(a, b *PurchaseOrder) int {
	switch {
	case a.DeliveryDate == nil && b.DeliveryDate == nil:
		return 0
	case a.DeliveryDate == nil:
		return 1
	case b.DeliveryDate == nil:
		return -1
	}
	return a.DeliveryDate.Compare(*b.DeliveryDate)
}

func seed(now time.Time) []PurchaseOrder {
	at := func(days int, s resource.Status) resource.Base {
		return resource.Base{Status: s, CreatedAt: now.AddDate(0, 0, -days)}
	}
	delivery := now.AddDate(0, 0, 14)
	approvedAt := now.AddDate(0, 0, -30)
	deliveredAt := now.AddDate(0, 0, -25)
	return []PurchaseOrder{
		{Base: at(35, StatusCompleted), OrderNumber: "PO-2026-0001", ProjectID: 1, QuotationID: 1,
			Supplier: "Cementos Bío Bío", Item: "Cemento Portland 25kg", Quantity: 800, UnitCost: 7.5,
			Priority: "high", RequestedBy: 2, ApprovedBy: 1, ApprovedAt: &approvedAt, DeliveredAt: &deliveredAt},
		{Base: at(9, StatusApproved), OrderNumber: "PO-2026-0002", ProjectID: 1,
			Supplier: "Aceros del Pacífico", Item: "Barra de acero 12mm", Quantity: 1200, UnitCost: 9.8,
			DeliveryDate: &delivery, Priority: "normal", RequestedBy: 2, ApprovedBy: 1, ApprovedAt: &approvedAt},
		{Base: at(3, StatusPending), OrderNumber: "PO-2026-0003", ProjectID: 2,
			Supplier: "Ferretería Central", Item: "Pintura látex blanca", Quantity: 60, UnitCost: 32,
			Priority: "low", RequestedBy: 3},
		{Base: at(1, StatusPending), OrderNumber: "PO-2026-0004", ProjectID: 4,
			Supplier: "Maderas del Sur", Item: "Tablero OSB 15mm", Quantity: 150, UnitCost: 18.4,
			Priority: "urgent", RequestedBy: 4},
	}
}
