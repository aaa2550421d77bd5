package backup

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/yoockh/applytrack/internal/models"
)

// JobRecord is one job in relational shape, with its audit rows and link ids.
type JobRecord struct {
	Job                  models.JobDescription
	History              []models.StatusHistory
	Activity             []models.ActivityLog
	LinkedResumeIDs      []string
	LinkedCoverLetterIDs []string
}

// FlattenJob converts a backup job into relational rows. Ids of audit rows
// are left empty for the caller to assign.
func FlattenJob(j Job) JobRecord {
	job := models.JobDescription{
		ID:                j.ID,
		SequentialID:      j.SequentialID,
		Title:             j.Title,
		Company:           j.Company,
		Role:              j.Role,
		Location:          j.Location,
		WorkArrangement:   j.WorkArrangement,
		RawText:           j.RawText,
		Keywords:          pq.StringArray(nonNil(j.Keywords)),
		SalaryMin:         j.SalaryMin,
		SalaryMax:         j.SalaryMax,
		SalaryCurrency:    j.SalaryCurrency,
		ApplicationStatus: models.ApplicationStatus(j.ApplicationStatus),
		IsArchived:        j.IsArchived,
		LastActivityDate:  j.LastActivityDate,
		InterviewDates:    pq.StringArray(nonNil(j.InterviewDates)),
		Priority:          j.Priority,
		Impact:            j.Impact,
		Notes:             j.Notes,
		AIParseStatus:     j.AIParseStatus,
		CreatedAt:         j.CreatedAt,
		UpdatedAt:         j.UpdatedAt,
	}
	if job.ApplicationStatus == "" {
		job.ApplicationStatus = models.StatusPending
	}
	if job.AIParseStatus == "" {
		job.AIParseStatus = models.ParseUnparsed
	}
	if len(j.ExtractedInfo) > 0 && string(j.ExtractedInfo) != "null" {
		job.ExtractedInfo = datatypes.JSON(j.ExtractedInfo)
	}
	if j.Source1 != nil {
		job.Source1Type, job.Source1Content = j.Source1.Type, j.Source1.Content
	}
	if j.Source2 != nil {
		job.Source2Type, job.Source2Content = j.Source2.Type, j.Source2.Content
	}
	if j.Contact != nil {
		job.ContactName, job.ContactEmail, job.ContactPhone = j.Contact.Name, j.Contact.Email, j.Contact.Phone
	}
	if j.DuplicateOfID != "" {
		id := j.DuplicateOfID
		job.DuplicateOfID = &id
	}

	rec := JobRecord{
		Job:                  job,
		LinkedResumeIDs:      j.LinkedResumeIDs,
		LinkedCoverLetterIDs: j.LinkedCoverLetterIDs,
	}
	for _, h := range j.StatusHistory {
		rec.History = append(rec.History, models.StatusHistory{
			JobDescriptionID: j.ID,
			Status:           models.ApplicationStatus(h.Status),
			Date:             h.Date,
			Notes:            h.Notes,
		})
	}
	for _, a := range j.ActivityLog {
		rec.Activity = append(rec.Activity, models.ActivityLog{
			JobDescriptionID: j.ID,
			Type:             a.Type,
			Description:      a.Description,
			FromValue:        rawJSON(a.FromValue),
			ToValue:          rawJSON(a.ToValue),
			CreatedAt:        a.Timestamp,
		})
	}
	return rec
}

// NestJob is the inverse of FlattenJob.
func NestJob(rec JobRecord) Job {
	j := rec.Job
	out := Job{
		ID:                   j.ID,
		SequentialID:         j.SequentialID,
		Title:                j.Title,
		Company:              j.Company,
		Role:                 j.Role,
		Location:             j.Location,
		WorkArrangement:      j.WorkArrangement,
		RawText:              j.RawText,
		Keywords:             nonNil(j.Keywords),
		SalaryMin:            j.SalaryMin,
		SalaryMax:            j.SalaryMax,
		SalaryCurrency:       j.SalaryCurrency,
		ApplicationStatus:    string(j.ApplicationStatus),
		IsArchived:           j.IsArchived,
		LastActivityDate:     j.LastActivityDate,
		InterviewDates:       nonNil(j.InterviewDates),
		Priority:             j.Priority,
		Impact:               j.Impact,
		Notes:                j.Notes,
		AIParseStatus:        j.AIParseStatus,
		LinkedResumeIDs:      nonNil(rec.LinkedResumeIDs),
		LinkedCoverLetterIDs: nonNil(rec.LinkedCoverLetterIDs),
		StatusHistory:        []StatusEntry{},
		ActivityLog:          []ActivityEntry{},
		CreatedAt:            j.CreatedAt,
		UpdatedAt:            j.UpdatedAt,
	}
	if len(j.ExtractedInfo) > 0 {
		out.ExtractedInfo = json.RawMessage(j.ExtractedInfo)
	}
	if j.Source1Type != "" || j.Source1Content != "" {
		out.Source1 = &Source{Type: j.Source1Type, Content: j.Source1Content}
	}
	if j.Source2Type != "" || j.Source2Content != "" {
		out.Source2 = &Source{Type: j.Source2Type, Content: j.Source2Content}
	}
	if j.ContactName != "" || j.ContactEmail != "" || j.ContactPhone != "" {
		out.Contact = &Contact{Name: j.ContactName, Email: j.ContactEmail, Phone: j.ContactPhone}
	}
	if j.DuplicateOfID != nil {
		out.DuplicateOfID = *j.DuplicateOfID
	}
	for _, h := range rec.History {
		out.StatusHistory = append(out.StatusHistory, StatusEntry{Status: string(h.Status), Date: h.Date, Notes: h.Notes})
	}
	for _, a := range rec.Activity {
		out.ActivityLog = append(out.ActivityLog, ActivityEntry{
			Type:        a.Type,
			Description: a.Description,
			FromValue:   json.RawMessage(a.FromValue),
			ToValue:     json.RawMessage(a.ToValue),
			Timestamp:   a.CreatedAt,
		})
	}
	return out
}

func FlattenDocument(d Document) models.Document {
	return models.Document{
		ID:              d.ID,
		Name:            d.Name,
		FileName:        d.FileName,
		FileType:        d.FileType,
		FileSize:        d.FileSize,
		FileContent:     d.FileContent,
		TextContent:     d.TextContent,
		DetectedCompany: d.DetectedCompany,
		DetectedRole:    d.DetectedRole,
		TargetCompany:   d.TargetCompany,
		TargetRole:      d.TargetRole,
		Notes:           d.Notes,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func NestDocument(d models.Document, linkedJobIDs []string) Document {
	return Document{
		ID:              d.ID,
		Name:            d.Name,
		FileName:        d.FileName,
		FileType:        d.FileType,
		FileSize:        d.FileSize,
		FileContent:     d.FileContent,
		TextContent:     d.TextContent,
		DetectedCompany: d.DetectedCompany,
		DetectedRole:    d.DetectedRole,
		TargetCompany:   d.TargetCompany,
		TargetRole:      d.TargetRole,
		Notes:           d.Notes,
		LinkedJobIDs:    nonNil(linkedJobIDs),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func FlattenCacheEntry(c CacheEntry) models.ScraperCache {
	return models.ScraperCache{
		InputHash:    c.InputHash,
		InputPreview: c.InputPreview,
		Result:       datatypes.JSON(c.Result),
		ExpiresAt:    c.ExpiresAt,
		CreatedAt:    c.CreatedAt,
	}
}

func NestCacheEntry(c models.ScraperCache) CacheEntry {
	return CacheEntry{
		InputHash:    c.InputHash,
		InputPreview: c.InputPreview,
		Result:       json.RawMessage(c.Result),
		ExpiresAt:    c.ExpiresAt,
		CreatedAt:    c.CreatedAt,
	}
}

// New returns an empty backup stamped with now.
func New(now time.Time) *Backup {
	return &Backup{
		Version:         FormatVersion,
		Timestamp:       now.UTC(),
		Resumes:         []Document{},
		CoverLetters:    []Document{},
		JobDescriptions: []Job{},
		ScraperCache:    []CacheEntry{},
	}
}

func rawJSON(b json.RawMessage) datatypes.JSON {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	return datatypes.JSON(b)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
