// Package backup defines the portable JSON backup file and converts between
// it and the relational models. The file keeps the older nested layout:
// sources and contact are sub-objects, links are plain id arrays and each job
// carries its own status history and activity log.
package backup

import (
	"encoding/json"
	"io"
	"time"
)

const FormatVersion = 1

type Backup struct {
	Version         int          `json:"version"`
	Timestamp       time.Time    `json:"timestamp"`
	Resumes         []Document   `json:"resumes"`
	CoverLetters    []Document   `json:"coverLetters"`
	JobDescriptions []Job        `json:"jobDescriptions"`
	ScraperCache    []CacheEntry `json:"scraperCache"`
}

type Document struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	FileName        string    `json:"fileName,omitempty"`
	FileType        string    `json:"fileType,omitempty"`
	FileSize        int       `json:"fileSize,omitempty"`
	FileContent     string    `json:"fileContent,omitempty"`
	TextContent     string    `json:"textContent,omitempty"`
	DetectedCompany string    `json:"detectedCompany,omitempty"`
	DetectedRole    string    `json:"detectedRole,omitempty"`
	TargetCompany   string    `json:"targetCompany,omitempty"`
	TargetRole      string    `json:"targetRole,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	LinkedJobIDs    []string  `json:"linkedJobIds"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Source struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type StatusEntry struct {
	Status string    `json:"status"`
	Date   time.Time `json:"date"`
	Notes  string    `json:"notes,omitempty"`
}

type ActivityEntry struct {
	Type        string          `json:"type"`
	Description string          `json:"description"`
	FromValue   json.RawMessage `json:"fromValue,omitempty"`
	ToValue     json.RawMessage `json:"toValue,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

type Job struct {
	ID              string `json:"id"`
	SequentialID    int    `json:"sequentialId"`
	Title           string `json:"title"`
	Company         string `json:"company"`
	Role            string `json:"role,omitempty"`
	Location        string `json:"location,omitempty"`
	WorkArrangement string `json:"workArrangement,omitempty"`
	RawText         string `json:"rawText"`

	ExtractedInfo json.RawMessage `json:"extractedInfo,omitempty"`
	Keywords      []string        `json:"keywords"`

	SalaryMin      *int   `json:"salaryMin,omitempty"`
	SalaryMax      *int   `json:"salaryMax,omitempty"`
	SalaryCurrency string `json:"salaryCurrency,omitempty"`

	Source1 *Source  `json:"source1,omitempty"`
	Source2 *Source  `json:"source2,omitempty"`
	Contact *Contact `json:"contact,omitempty"`

	ApplicationStatus string     `json:"applicationStatus"`
	IsArchived        bool       `json:"isArchived"`
	LastActivityDate  *time.Time `json:"lastActivityDate,omitempty"`
	InterviewDates    []string   `json:"interviewDates"`
	Priority          string     `json:"priority,omitempty"`
	Impact            string     `json:"impact,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	AIParseStatus     string     `json:"aiParseStatus,omitempty"`
	DuplicateOfID     string     `json:"duplicateOfId,omitempty"`

	LinkedResumeIDs      []string `json:"linkedResumeIds"`
	LinkedCoverLetterIDs []string `json:"linkedCoverLetterIds"`

	StatusHistory []StatusEntry   `json:"statusHistory"`
	ActivityLog   []ActivityEntry `json:"activityLog"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CacheEntry struct {
	InputHash    string          `json:"inputHash"`
	InputPreview string          `json:"inputPreview,omitempty"`
	Result       json.RawMessage `json:"result"`
	ExpiresAt    time.Time       `json:"expiresAt"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func Decode(r io.Reader) (*Backup, error) {
	var b Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

func Encode(w io.Writer, b *Backup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}
