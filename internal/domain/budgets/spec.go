package budgets

import (
	"cmp"
	"fmt"
	"time"

	"procurement-hub/internal/resource"
)

type Service = resource.Service[Budget, *Budget]

func NewService(store resource.Store[Budget], deps resource.Deps) *Service {
	return resource.NewService[Budget](Spec(), store, deps)
}

func Spec() resource.Spec[Budget] {
	staff := resource.Staff
	return resource.Spec[Budget]{
		Name:      "budgets",
		Singular:  "budget",
		Label:     "Budget",
		Statuses:  []resource.Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled},
		Protected: []resource.Status{StatusApproved},
		Locked:    []resource.Status{StatusRejected, StatusCancelled},
		Immutable: []string{"requestedBy", "remaining", "approvedBy", "approvedAt", "rejectedBy", "rejectedAt", "rejectionReason"},
		Notify:    true,
		Policy: resource.Policy{
			resource.OpList:   {Roles: resource.Everyone},
			resource.OpGet:    {Roles: resource.Everyone},
			resource.OpCreate: {Roles: staff},
			resource.OpUpdate: {Roles: staff, Owner: true},
			resource.OpDelete: {Roles: resource.Admins},
		},
		Transitions: []resource.Transition[Budget]{
			{
				Action: "approve", From: []resource.Status{StatusPending}, To: StatusApproved, Roles: staff,
				Stamp: func(b *Budget, c resource.Change) {
					at := c.At
					b.ApprovedBy, b.ApprovedAt = c.Actor.ID, &at
				},
			},
			{
				Action: "reject", From: []resource.Status{StatusPending}, To: StatusRejected, Roles: staff,
				Stamp: func(b *Budget, c resource.Change) {
					at := c.At
					b.RejectedBy, b.RejectedAt = c.Actor.ID, &at
					b.RejectionReason = c.Reason
				},
			},
			{Action: "cancel", From: []resource.Status{StatusPending, StatusApproved}, To: StatusCancelled, Roles: resource.Admins},
		},
		Owner:    func(b *Budget) int64 { return b.RequestedBy },
		SetOwner: func(b *Budget, id int64) { b.RequestedBy = id },
		Title:    func(b *Budget) string { return b.Name },
		Derive:   func(b *Budget) { b.Remaining = b.Amount - b.Spent },
		Check: func(b *Budget) error {
			if b.Spent > b.Amount {
				return fmt.Errorf("spent (%.2f) exceeds amount (%.2f)", b.Spent, b.Amount)
			}
			return nil
		},
		Filters: map[string]resource.Filter[Budget]{
			"projectId":   resource.EqualsInt(func(b *Budget) int64 { return b.ProjectID }),
			"category":    resource.EqualsFold(func(b *Budget) string { return b.Category }),
			"requestedBy": resource.EqualsInt(func(b *Budget) int64 { return b.RequestedBy }),
			"fiscalYear":  resource.EqualsInt(func(b *Budget) int64 { return int64(b.FiscalYear) }),
		},
		SearchFields: func(b *Budget) []string { return []string{b.Name, b.Category, b.Description} },
		SortKeys: map[string]func(a, b *Budget) int{
			"amount":    func(a, b *Budget) int { return cmp.Compare(a.Amount, b.Amount) },
			"spent":     func(a, b *Budget) int { return cmp.Compare(a.Spent, b.Spent) },
			"remaining": func(a, b *Budget) int { return cmp.Compare(a.Remaining, b.Remaining) },
			"name":      func(a, b *Budget) int { return cmp.Compare(a.Name, b.Name) },
		},
		DefaultLimit: 10,
		Seed:         seed,
	}
}

func seed(now time.Time) []Budget {
	ago := func(days int, s resource.Status) resource.Base {
		return resource.Base{Status: s, CreatedAt: now.AddDate(0, 0, -days)}
	}
	approvedAt := now.AddDate(0, 0, -85)
	rejectedAt := now.AddDate(0, 0, -10)
	return []Budget{
		{Base: ago(90, StatusApproved), ProjectID: 1, Name: "Obra gruesa", Category: "materiales",
			Amount: 900000, Spent: 610000, FiscalYear: now.Year(), RequestedBy: 2, ApprovedBy: 1, ApprovedAt: &approvedAt},
		{Base: ago(80, StatusApproved), ProjectID: 1, Name: "Mano de obra", Category: "personal",
			Amount: 700000, Spent: 420000, FiscalYear: now.Year(), RequestedBy: 2, ApprovedBy: 1, ApprovedAt: &approvedAt},
		{Base: ago(12, StatusPending), ProjectID: 2, Name: "Estudios previos", Category: "servicios",
			Amount: 45000, FiscalYear: now.Year(), RequestedBy: 2},
		{Base: ago(11, StatusRejected), ProjectID: 2, Name: "Maquinaria pesada", Category: "equipos",
			Amount: 210000, FiscalYear: now.Year(), RequestedBy: 3, RejectedBy: 1, RejectedAt: &rejectedAt,
			RejectionReason: "fuera de alcance"},
		{Base: ago(5, StatusPending), ProjectID: 4, Name: "Movimiento de tierra", Category: "servicios",
			Amount: 130000, Spent: 0, FiscalYear: now.Year(), RequestedBy: 2},
	}
}
