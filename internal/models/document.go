package models

import "time"

// Document holds the columns shared by resumes and cover letters.
type Document struct {
	ID              string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name            string    `gorm:"column:name;type:text;not null" json:"name"`
	FileName        string    `gorm:"column:file_name;type:text" json:"fileName,omitempty"`
	FileType        string    `gorm:"column:file_type;type:text" json:"fileType,omitempty"`
	FileSize        int       `gorm:"column:file_size" json:"fileSize,omitempty"`
	FileContent     string    `gorm:"column:file_content;type:text" json:"fileContent,omitempty"` // base64
	TextContent     string    `gorm:"column:text_content;type:text" json:"textContent,omitempty"`
	DetectedCompany string    `gorm:"column:detected_company;type:text" json:"detectedCompany,omitempty"`
	DetectedRole    string    `gorm:"column:detected_role;type:text" json:"detectedRole,omitempty"`
	TargetCompany   string    `gorm:"column:target_company;type:text" json:"targetCompany,omitempty"`
	TargetRole      string    `gorm:"column:target_role;type:text" json:"targetRole,omitempty"`
	Notes           string    `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedAt       time.Time `gorm:"column:created_at;type:timestamptz" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updated_at;type:timestamptz" json:"updatedAt"`
}

type Resume struct {
	Document
}

func (Resume) TableName() string { return "resumes" }

type CoverLetter struct {
	Document
}

func (CoverLetter) TableName() string { return "cover_letters" }

// DocumentKind describes where one document family lives.
type DocumentKind struct {
	Name       string // "resume"
	Label      string // "Resume"
	Table      string
	LinkTable  string
	LinkColumn string
}

var (
	KindResume = DocumentKind{
		Name:       "resume",
		Label:      "Resume",
		Table:      "resumes",
		LinkTable:  "job_resume_links",
		LinkColumn: "resume_id",
	}
	KindCoverLetter = DocumentKind{
		Name:       "cover_letter",
		Label:      "Cover letter",
		Table:      "cover_letters",
		LinkTable:  "job_cover_letter_links",
		LinkColumn: "cover_letter_id",
	}
)

// DocumentSummary is the slim shape embedded in job detail responses.
type DocumentSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	FileName      string `json:"fileName,omitempty"`
	TargetCompany string `json:"targetCompany,omitempty"`
	TargetRole    string `json:"targetRole,omitempty"`
}
