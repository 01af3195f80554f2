// Package backups: snapshots JSON de los recursos, generados en background
// y guardados en el blob store.
package backups

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"procurement-hub/internal/domain/tasks"
	"procurement-hub/internal/resource"
)

const (
	TypeFull    = "full"
	TypePartial = "partial"

	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

type Backup struct {
	resource.Base

	Name      string   `json:"name" validate:"max=120"`
	Type      string   `json:"type" validate:"oneof=full partial"`
	Resources []string `json:"resources,omitempty"`
	Trigger   string   `json:"trigger"`
	CreatedBy int64    `json:"createdBy"`

	BlobKey string `json:"blobKey,omitempty"`
	Size    int64  `json:"size"`
	Records int    `json:"records"`
	tasks.Fields
}

type Service = resource.Service[Backup, *Backup]

// NewService: known son los recursos que se pueden respaldar.
func NewService(store resource.Store[Backup], deps resource.Deps, known []string) *Service {
	return resource.NewService[Backup](Spec(known), store, deps)
}

func Spec(known []string) resource.Spec[Backup] {
	admins := resource.Rule{Roles: resource.Admins}
	return resource.Spec[Backup]{
		Name:      "backups",
		Singular:  "backup",
		Label:     "Backup",
		Statuses:  tasks.Statuses,
		Protected: []resource.Status{tasks.StatusPending, tasks.StatusRunning},
		Locked:    tasks.Statuses,
		Immutable: append([]string{"trigger", "createdBy", "blobKey", "size", "records"}, tasks.ImmutableKeys...),
		Policy: resource.Policy{
			resource.OpList:   admins,
			resource.OpGet:    admins,
			resource.OpCreate: admins,
			resource.OpDelete: admins,
		},
		Transitions: tasks.Transitions(func(b *Backup) *tasks.Fields { return &b.Fields }),
		Owner:       func(b *Backup) int64 { return b.CreatedBy },
		SetOwner:    func(b *Backup, id int64) { b.CreatedBy = id },
		Title:       func(b *Backup) string { return b.Name },
		Derive: func(b *Backup) {
			if b.Type == "" {
				b.Type = TypeFull
			}
			if b.Trigger == "" {
				b.Trigger = TriggerManual
			}
			if b.Type == TypeFull {
				b.Resources = nil
			}
			if strings.TrimSpace(b.Name) == "" {
				b.Name = fmt.Sprintf("%s backup", b.Trigger)
			}
		},
		Check: func(b *Backup) error {
			if b.Type != TypePartial {
				return nil
			}
			if len(b.Resources) == 0 {
				return fmt.Errorf("resources is required for a partial backup")
			}
			for _, r := range b.Resources {
				if !slices.Contains(known, r) {
					return fmt.Errorf("unknown resource %q", r)
				}
			}
			return nil
		},
		Filters: map[string]resource.Filter[Backup]{
			"type":    resource.EqualsFold(func(b *Backup) string { return b.Type }),
			"trigger": resource.EqualsFold(func(b *Backup) string { return b.Trigger }),
		},
		SearchFields: func(b *Backup) []string { return []string{b.Name} },
		DefaultLimit: 20,
	}
}

// Includes dice si el backup cubre el recurso name.
func (b *Backup) Includes(name string) bool {
	return b.Type == TypeFull || slices.Contains(b.Resources, name)
}

func (b *Backup) filename() string {
	return fmt.Sprintf("backup-%d-%s.json", b.ID, b.CreatedAt.UTC().Format("20060102-150405"))
}

// snapshot es el documento que se guarda en el blob store.
type snapshot struct {
	BackupID  int64                      `json:"backupId"`
	Type      string                     `json:"type"`
	TakenAt   time.Time                  `json:"takenAt"`
	Counts    map[string]int             `json:"counts"`
	Resources map[string]json.RawMessage `json:"resources"`
}
