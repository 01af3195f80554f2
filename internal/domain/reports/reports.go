// Package reports: exportaciones tabulares (CSV o JSON) generadas en background.
package reports

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"procurement-hub/internal/domain/tasks"
	"procurement-hub/internal/resource"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

type Report struct {
	resource.Base

	Name      string     `json:"name" validate:"required,max=120"`
	Type      string     `json:"type" validate:"required,oneof=projects budgets purchase-orders payments inventory summary"`
	Format    string     `json:"format" validate:"oneof=json csv"`
	ProjectID int64      `json:"projectId,omitempty" validate:"gte=0"`
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`

	RequestedBy int64  `json:"requestedBy"`
	BlobKey     string `json:"blobKey,omitempty"`
	Size        int64  `json:"size"`
	Rows        int    `json:"rows"`
	tasks.Fields
}

type Service = resource.Service[Report, *Report]

func NewService(store resource.Store[Report], deps resource.Deps) *Service {
	return resource.NewService[Report](Spec(), store, deps)
}

func Spec() resource.Spec[Report] {
	mine := resource.Rule{Roles: resource.Staff, Owner: true}
	return resource.Spec[Report]{
		Name:      "reports",
		Singular:  "report",
		Label:     "Report",
		Statuses:  tasks.Statuses,
		Protected: []resource.Status{tasks.StatusPending, tasks.StatusRunning},
		Locked:    tasks.Statuses,
		Immutable: append([]string{"requestedBy", "blobKey", "size", "rows"}, tasks.ImmutableKeys...),
		Policy: resource.Policy{
			resource.OpList:   mine,
			resource.OpGet:    mine,
			resource.OpCreate: {Roles: resource.Everyone},
			resource.OpDelete: {Roles: resource.Admins, Owner: true},
		},
		Transitions: tasks.Transitions(func(r *Report) *tasks.Fields { return &r.Fields }),
		Owner:       func(r *Report) int64 { return r.RequestedBy },
		SetOwner:    func(r *Report, id int64) { r.RequestedBy = id },
		Title:       func(r *Report) string { return r.Name },
		Derive: func(r *Report) {
			r.Format = strings.ToLower(strings.TrimSpace(r.Format))
			if r.Format == "" {
				r.Format = FormatJSON
			}
		},
		Check: func(r *Report) error {
			if r.From != nil && r.To != nil && r.To.Before(*r.From) {
				return errors.New("to must not be before from")
			}
			return nil
		},
		Filters: map[string]resource.Filter[Report]{
			"type":        resource.EqualsFold(func(r *Report) string { return r.Type }),
			"format":      resource.EqualsFold(func(r *Report) string { return r.Format }),
			"requestedBy": resource.EqualsInt(func(r *Report) int64 { return r.RequestedBy }),
		},
		SearchFields: func(r *Report) []string { return []string{r.Name, r.Type} },
		DefaultLimit: 20,
	}
}

func (r *Report) filename() string {
	return fmt.Sprintf("report-%d-%s.%s", r.ID, r.Type, r.Format)
}

func (r *Report) contentType() string {
	if r.Format == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

// inRange aplica los filtros opcionales del reporte a un registro.
func (r *Report) inRange(projectID int64, created time.Time) bool {
	if r.ProjectID != 0 && projectID != r.ProjectID {
		return false
	}
	if r.From != nil && created.Before(*r.From) {
		return false
	}
	if r.To != nil && created.After(*r.To) {
		return false
	}
	return true
}
