package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type ApplicationStatus string

const (
	StatusPending      ApplicationStatus = "pending"
	StatusApplied      ApplicationStatus = "applied"
	StatusInterviewing ApplicationStatus = "interviewing"
	StatusOffered      ApplicationStatus = "offered"
	StatusRejected     ApplicationStatus = "rejected"
	StatusWithdrawn    ApplicationStatus = "withdrawn"
	StatusDuplicate    ApplicationStatus = "duplicate"
)

// AI parse lifecycle: unparsed -> parsing -> parsed | failed. failed is only
// retried when the user asks again.
const (
	ParseUnparsed = "unparsed"
	ParseParsing  = "parsing"
	ParseParsed   = "parsed"
	ParseFailed   = "failed"
)

type JobDescription struct {
	ID           string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SequentialID int    `gorm:"column:sequential_id;not null;uniqueIndex:ux_job_sequential_id" json:"sequentialId"`

	Title           string `gorm:"column:title;type:text;not null" json:"title"`
	Company         string `gorm:"column:company;type:text;not null;index" json:"company"`
	Role            string `gorm:"column:role;type:text" json:"role"`
	Location        string `gorm:"column:location;type:text" json:"location"`
	WorkArrangement string `gorm:"column:work_arrangement;type:text" json:"workArrangement"`
	RawText         string `gorm:"column:raw_text;type:text;not null" json:"rawText"`

	ExtractedInfo datatypes.JSON `gorm:"column:extracted_info;type:jsonb" json:"extractedInfo,omitempty"`
	Keywords      pq.StringArray `gorm:"column:keywords;type:text[]" json:"keywords"`

	SalaryMin      *int   `gorm:"column:salary_min" json:"salaryMin,omitempty"`
	SalaryMax      *int   `gorm:"column:salary_max" json:"salaryMax,omitempty"`
	SalaryCurrency string `gorm:"column:salary_currency;type:text" json:"salaryCurrency,omitempty"`

	Source1Type    string `gorm:"column:source1_type;type:text" json:"source1Type,omitempty"`
	Source1Content string `gorm:"column:source1_content;type:text" json:"source1Content,omitempty"`
	Source2Type    string `gorm:"column:source2_type;type:text" json:"source2Type,omitempty"`
	Source2Content string `gorm:"column:source2_content;type:text" json:"source2Content,omitempty"`

	ContactName  string `gorm:"column:contact_name;type:text" json:"contactName,omitempty"`
	ContactEmail string `gorm:"column:contact_email;type:text" json:"contactEmail,omitempty"`
	ContactPhone string `gorm:"column:contact_phone;type:text" json:"contactPhone,omitempty"`

	ApplicationStatus ApplicationStatus `gorm:"column:application_status;type:text;not null;default:pending;index" json:"applicationStatus"`
	IsArchived        bool              `gorm:"column:is_archived;not null;default:false;index" json:"isArchived"`
	LastActivityDate  *time.Time        `gorm:"column:last_activity_date;type:timestamptz" json:"lastActivityDate,omitempty"`
	InterviewDates    pq.StringArray    `gorm:"column:interview_dates;type:text[]" json:"interviewDates"`
	Priority          string            `gorm:"column:priority;type:text" json:"priority,omitempty"`
	Impact            string            `gorm:"column:impact;type:text" json:"impact,omitempty"`
	Notes             string            `gorm:"column:notes;type:text" json:"notes,omitempty"`

	AIParseStatus string `gorm:"column:ai_parse_status;type:text;not null;default:unparsed" json:"aiParseStatus"`
	AIParseError  string `gorm:"column:ai_parse_error;type:text" json:"aiParseError,omitempty"`

	DuplicateOfID *string         `gorm:"column:duplicate_of_id;type:uuid;index" json:"duplicateOfId,omitempty"`
	DuplicateOf   *JobDescription `gorm:"foreignKey:DuplicateOfID;constraint:OnDelete:SET NULL" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updatedAt"`

	StatusHistory    []StatusHistory      `gorm:"foreignKey:JobDescriptionID" json:"-"`
	ActivityLogs     []ActivityLog        `gorm:"foreignKey:JobDescriptionID" json:"-"`
	ResumeLinks      []JobResumeLink      `gorm:"foreignKey:JobDescriptionID" json:"-"`
	CoverLetterLinks []JobCoverLetterLink `gorm:"foreignKey:JobDescriptionID" json:"-"`
}

func (JobDescription) TableName() string { return "job_descriptions" }

// JobFilter narrows a job listing; set fields are ANDed together.
type JobFilter struct {
	Status   string
	Archived *bool
	Company  string
	Search   string
}

// JobStats is the dashboard summary.
type JobStats struct {
	Total        int64 `json:"total"`
	Applied      int64 `json:"applied"`
	Interviewing int64 `json:"interviewing"`
	Rejected     int64 `json:"rejected"`
	Offered      int64 `json:"offered"`
	Archived     int64 `json:"archived"`
	Pending      int64 `json:"pending"`
}
