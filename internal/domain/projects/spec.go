package projects

import (
	"cmp"
	"errors"

	"procurement-hub/internal/resource"
)

type Service = resource.Service[Project, *Project]

func NewService(store resource.Store[Project], deps resource.Deps) *Service {
	return resource.NewService[Project](Spec(), store, deps)
}

func Spec() resource.Spec[Project] {
	staff := resource.Staff
	return resource.Spec[Project]{
		Name:      "projects",
		Singular:  "project",
		Label:     "Project",
		Statuses:  []resource.Status{StatusPlanning, StatusActive, StatusOnHold, StatusCompleted, StatusCancelled},
		Protected: []resource.Status{StatusActive, StatusCompleted},
		Locked:    []resource.Status{StatusCompleted, StatusCancelled},
		Immutable: []string{"createdBy", "completedAt"},
		Policy: resource.Policy{
			resource.OpList:   {Roles: resource.Everyone},
			resource.OpGet:    {Roles: resource.Everyone},
			resource.OpCreate: {Roles: staff},
			resource.OpUpdate: {Roles: staff, Owner: true},
			resource.OpDelete: {Roles: resource.Admins},
		},
		Transitions: []resource.Transition[Project]{
			{Action: "activate", From: []resource.Status{StatusPlanning, StatusOnHold}, To: StatusActive, Roles: staff},
			{Action: "hold", From: []resource.Status{StatusActive}, To: StatusOnHold, Roles: staff},
			{
				Action: "complete", From: []resource.Status{StatusActive}, To: StatusCompleted, Roles: staff,
				Stamp: func(p *Project, c resource.Change) {
					at := c.At
					p.CompletedAt = &at
					p.Progress = 100
				},
			},
			{Action: "cancel", From: []resource.Status{StatusPlanning, StatusActive, StatusOnHold}, To: StatusCancelled, Roles: resource.Admins},
		},
		Owner:    func(p *Project) int64 { return p.CreatedBy },
		SetOwner: func(p *Project, id int64) { p.CreatedBy = id },
		Title:    func(p *Project) string { return p.Name },
		Check: func(p *Project) error {
			if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
				return errors.New("endDate must not be before startDate")
			}
			return nil
		},
		UniqueKey: func(p *Project) string { return p.Name },
		Filters: map[string]resource.Filter[Project]{
			"category":  resource.EqualsFold(func(p *Project) string { return p.Category }),
			"client":    resource.EqualsFold(func(p *Project) string { return p.Client }),
			"managerId": resource.EqualsInt(func(p *Project) int64 { return p.ManagerID }),
			"createdBy": resource.EqualsInt(func(p *Project) int64 { return p.CreatedBy }),
		},
		SearchFields: func(p *Project) []string {
			return []string{p.Name, p.Description, p.Client, p.Location}
		},
		SortKeys: map[string]func(a, b *Project) int{
			"name":     func(a, b *Project) int { return cmp.Compare(a.Name, b.Name) },
			"budget":   func(a, b *Project) int { return cmp.Compare(a.Budget, b.Budget) },
			"progress": func(a, b *Project) int { return cmp.Compare(a.Progress, b.Progress) },
		},
		DefaultLimit: 10,
		Seed:         seed,
	}
}
