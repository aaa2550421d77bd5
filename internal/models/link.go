package models

import "time"

type JobResumeLink struct {
	ID               string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	JobDescriptionID string    `gorm:"column:job_description_id;type:uuid;not null;uniqueIndex:ux_job_resume,priority:1" json:"jobDescriptionId"`
	ResumeID         string    `gorm:"column:resume_id;type:uuid;not null;uniqueIndex:ux_job_resume,priority:2;index" json:"resumeId"`
	CreatedAt        time.Time `gorm:"column:created_at;type:timestamptz" json:"createdAt"`

	Resume *Resume `gorm:"foreignKey:ResumeID" json:"-"`
}

func (JobResumeLink) TableName() string { return "job_resume_links" }

type JobCoverLetterLink struct {
	ID               string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	JobDescriptionID string    `gorm:"column:job_description_id;type:uuid;not null;uniqueIndex:ux_job_cover_letter,priority:1" json:"jobDescriptionId"`
	CoverLetterID    string    `gorm:"column:cover_letter_id;type:uuid;not null;uniqueIndex:ux_job_cover_letter,priority:2;index" json:"coverLetterId"`
	CreatedAt        time.Time `gorm:"column:created_at;type:timestamptz" json:"createdAt"`

	CoverLetter *CoverLetter `gorm:"foreignKey:CoverLetterID" json:"-"`
}

func (JobCoverLetterLink) TableName() string { return "job_cover_letter_links" }

// DocumentLink is the kind-agnostic view of a link row.
type DocumentLink struct {
	ID               string    `json:"id"`
	JobDescriptionID string    `json:"jobDescriptionId"`
	DocumentID       string    `json:"documentId"`
	CreatedAt        time.Time `json:"createdAt"`
}
