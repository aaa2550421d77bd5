package postgres

import (
	"context"

	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/repositories"
	"github.com/yoockh/applytrack/internal/utils"
	"gorm.io/gorm"
)

// documentRepo serves both resumes and cover letters; kind picks the tables.
type documentRepo struct {
	db   *gorm.DB
	kind models.DocumentKind
}

func NewResumeRepo(db *gorm.DB) repositories.DocumentRepository {
	return &documentRepo{db: db, kind: models.KindResume}
}

func NewCoverLetterRepo(db *gorm.DB) repositories.DocumentRepository {
	return &documentRepo{db: db, kind: models.KindCoverLetter}
}

func (r *documentRepo) Kind() models.DocumentKind { return r.kind }

func (r *documentRepo) docs(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.kind.Table)
}

func (r *documentRepo) links(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.kind.LinkTable)
}

func (r *documentRepo) List(ctx context.Context, search string) ([]models.Document, error) {
	q := r.docs(ctx).Omit("file_content")
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("(name ILIKE ? OR target_company ILIKE ? OR target_role ILIKE ? OR detected_company ILIKE ?)",
			like, like, like, like)
	}

	var rows []models.Document
	err := q.Order("updated_at DESC").Find(&rows).Error
	return rows, err
}

func (r *documentRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var d models.Document
	if err := r.docs(ctx).Where("id = ?", id).Take(&d).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *documentRepo) Create(ctx context.Context, d *models.Document) error {
	return translate(r.docs(ctx).Create(d).Error)
}

func (r *documentRepo) Update(ctx context.Context, d *models.Document) error {
	res := r.docs(ctx).
		Where("id = ?", d.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(d)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *documentRepo) Delete(ctx context.Context, id string) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(r.kind.LinkTable).
			Where(r.kind.LinkColumn+" = ?", id).
			Delete(map[string]any{}).Error; err != nil {
			return err
		}
		res := tx.Table(r.kind.Table).Where("id = ?", id).Delete(&models.Document{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrNotFound
		}
		return nil
	}))
}

func (r *documentRepo) Link(ctx context.Context, l *models.DocumentLink) error {
	return translate(r.links(ctx).Create(map[string]any{
		"id":                 l.ID,
		"job_description_id": l.JobDescriptionID,
		r.kind.LinkColumn:    l.DocumentID,
		"created_at":         l.CreatedAt,
	}).Error)
}

func (r *documentRepo) Unlink(ctx context.Context, jobID, documentID string) (bool, error) {
	res := r.links(ctx).
		Where("job_description_id = ? AND "+r.kind.LinkColumn+" = ?", jobID, documentID).
		Delete(map[string]any{})
	return res.RowsAffected > 0, res.Error
}

func (r *documentRepo) selectLinks(ctx context.Context) *gorm.DB {
	return r.links(ctx).Select("id, job_description_id, " + r.kind.LinkColumn + " AS document_id, created_at")
}

func (r *documentRepo) LinksForJobs(ctx context.Context, jobIDs []string) ([]models.DocumentLink, error) {
	q := r.selectLinks(ctx)
	if jobIDs != nil {
		if len(jobIDs) == 0 {
			return []models.DocumentLink{}, nil
		}
		q = q.Where("job_description_id IN ?", jobIDs)
	}

	var rows []models.DocumentLink
	err := q.Order("created_at ASC").Scan(&rows).Error
	return rows, err
}

func (r *documentRepo) LinksForDocument(ctx context.Context, documentID string) ([]models.DocumentLink, error) {
	var rows []models.DocumentLink
	err := r.selectLinks(ctx).
		Where(r.kind.LinkColumn+" = ?", documentID).
		Order("created_at ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *documentRepo) Summaries(ctx context.Context, ids []string) ([]models.DocumentSummary, error) {
	if len(ids) == 0 {
		return []models.DocumentSummary{}, nil
	}
	var rows []models.DocumentSummary
	err := r.docs(ctx).
		Select("id, name, file_name, target_company, target_role").
		Where("id IN ?", ids).
		Order("name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *documentRepo) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Table(r.kind.LinkTable).Delete(map[string]any{}).Error; err != nil {
			return err
		}
		res := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Table(r.kind.Table).Delete(&models.Document{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}
