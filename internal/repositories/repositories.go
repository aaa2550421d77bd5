// Package repositories declares the persistence contracts shared by the
// postgres and in-memory implementations.
//
// Implementations return utils.ErrNotFound for missing rows and
// utils.ErrConflict for unique-constraint violations.
package repositories

import (
	"context"
	"time"

	"github.com/yoockh/applytrack/internal/models"
)

type JobRepository interface {
	List(ctx context.Context, f models.JobFilter) ([]models.JobDescription, error)
	GetByID(ctx context.Context, id string) (*models.JobDescription, error)

	// Create assigns the next sequential id (max+1) and inserts the job together
	// with the optional seed history/activity rows in one transaction.
	Create(ctx context.Context, job *models.JobDescription, history *models.StatusHistory, activity *models.ActivityLog) error
	// Restore inserts an imported job keeping its SequentialID when it is
	// positive and unused; otherwise it behaves like Create.
	Restore(ctx context.Context, job *models.JobDescription) error
	// Update overwrites the mutable columns of an existing job and appends the
	// optional audit rows atomically.
	Update(ctx context.Context, job *models.JobDescription, history *models.StatusHistory, activity *models.ActivityLog) error
	// Delete removes the job and every child row.
	Delete(ctx context.Context, id string) error

	History(ctx context.Context, jobID string) ([]models.StatusHistory, error)
	// Activity returns newest entries first; limit <= 0 means all.
	Activity(ctx context.Context, jobID string, limit int) ([]models.ActivityLog, error)
	AppendHistory(ctx context.Context, h *models.StatusHistory) error
	AppendActivity(ctx context.Context, a *models.ActivityLog) error

	Stats(ctx context.Context) (models.JobStats, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type DocumentRepository interface {
	Kind() models.DocumentKind

	// List omits file content.
	List(ctx context.Context, search string) ([]models.Document, error)
	GetByID(ctx context.Context, id string) (*models.Document, error)
	Create(ctx context.Context, d *models.Document) error
	Update(ctx context.Context, d *models.Document) error
	// Delete removes the document and its link rows.
	Delete(ctx context.Context, id string) error

	Link(ctx context.Context, l *models.DocumentLink) error
	// Unlink reports whether a row was removed; a missing link is not an error.
	Unlink(ctx context.Context, jobID, documentID string) (bool, error)
	// LinksForJobs returns links of the given jobs, or all links when jobIDs is nil.
	LinksForJobs(ctx context.Context, jobIDs []string) ([]models.DocumentLink, error)
	LinksForDocument(ctx context.Context, documentID string) ([]models.DocumentLink, error)
	Summaries(ctx context.Context, ids []string) ([]models.DocumentSummary, error)

	DeleteAll(ctx context.Context) (int64, error)
}

type ScraperCacheRepository interface {
	// GetByHash returns the row even when expired; callers decide.
	GetByHash(ctx context.Context, hash string) (*models.ScraperCache, error)
	Upsert(ctx context.Context, row *models.ScraperCache) error
	List(ctx context.Context) ([]models.ScraperCache, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}
