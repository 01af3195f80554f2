package projects

import (
	"time"

	"procurement-hub/internal/resource"
)

const (
	StatusPlanning  resource.Status = "planning"
	StatusActive    resource.Status = "active"
	StatusOnHold    resource.Status = "on_hold"
	StatusCompleted resource.Status = "completed"
	StatusCancelled resource.Status = "cancelled"
)

type Project struct {
	resource.Base

	Name        string     `json:"name" validate:"required,max=120"`
	Description string     `json:"description" validate:"max=2000"`
	Client      string     `json:"client,omitempty"`
	Location    string     `json:"location,omitempty"`
	Category    string     `json:"category,omitempty"`
	Budget      float64    `json:"budget" validate:"gte=0"`
	Spent       float64    `json:"spent" validate:"gte=0"`
	Progress    int        `json:"progress" validate:"gte=0,lte=100"`
	ManagerID   int64      `json:"managerId,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`

	CreatedBy   int64      `json:"createdBy"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
