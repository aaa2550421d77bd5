package models

import (
	"time"

	"gorm.io/datatypes"
)

// StatusHistory is append-only; rows go away only with their job.
type StatusHistory struct {
	ID               string            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	JobDescriptionID string            `gorm:"column:job_description_id;type:uuid;not null;index" json:"jobDescriptionId"`
	Status           ApplicationStatus `gorm:"column:status;type:text;not null" json:"status"`
	Date             time.Time         `gorm:"column:date;type:timestamptz;not null;index" json:"date"`
	Notes            string            `gorm:"column:notes;type:text" json:"notes,omitempty"`
}

func (StatusHistory) TableName() string { return "status_history" }

const (
	ActivityJobCreated      = "job_created"
	ActivityStatusChange    = "status_change"
	ActivityJobArchived     = "job_archived"
	ActivityMarkedDuplicate = "marked_duplicate"
	ActivityAIParsed        = "ai_parsed"
)

// ActivityLogDetailLimit caps the entries returned with a job's detail view.
const ActivityLogDetailLimit = 50

type ActivityLog struct {
	ID               string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	JobDescriptionID string         `gorm:"column:job_description_id;type:uuid;not null;index" json:"jobDescriptionId"`
	Type             string         `gorm:"column:type;type:text;not null" json:"type"`
	Description      string         `gorm:"column:description;type:text" json:"description"`
	FromValue        datatypes.JSON `gorm:"column:from_value;type:jsonb" json:"fromValue,omitempty"`
	ToValue          datatypes.JSON `gorm:"column:to_value;type:jsonb" json:"toValue,omitempty"`
	CreatedAt        time.Time      `gorm:"column:created_at;type:timestamptz;index" json:"createdAt"`
}

func (ActivityLog) TableName() string { return "activity_logs" }
