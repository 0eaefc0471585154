package domain

import (
	"context"
	"time"

	"gorm.io/datatypes"
)

type ActivityType string

const (
	ActivityCreated       ActivityType = "created"
	ActivityUpdated       ActivityType = "updated"
	ActivityStatusChanged ActivityType = "status_changed"
	ActivityAssigned      ActivityType = "assigned"
)

// LeadActivity is append-only: rows are inserted, never updated or deleted.
type LeadActivity struct {
	ID           string         `gorm:"primaryKey;size:26" json:"id"`
	ContactID    string         `gorm:"size:36;not null;index" json:"contactId"`
	ActivityType ActivityType   `gorm:"size:32;not null" json:"activityType"`
	Description  string         `gorm:"size:255" json:"description"`
	PerformedBy  string         `gorm:"size:36;not null" json:"performedBy"`
	OccurredAt   time.Time      `gorm:"not null" json:"occurredAt"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`
}

func (LeadActivity) TableName() string { return "lead_activities" }

type ActivityRepository interface {
	Append(ctx context.Context, a *LeadActivity) error
	ListByContact(ctx context.Context, contactID string) ([]LeadActivity, error)
}
