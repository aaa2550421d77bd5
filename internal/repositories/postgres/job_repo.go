package postgres

import (
	"context"

	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/repositories"
	"github.com/yoockh/applytrack/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sequentialLockKey serialises sequential id assignment across connections.
const sequentialLockKey = 717001

type jobRepo struct {
	db *gorm.DB
}

func NewJobRepo(db *gorm.DB) repositories.JobRepository {
	return &jobRepo{db: db}
}

func (r *jobRepo) List(ctx context.Context, f models.JobFilter) ([]models.JobDescription, error) {
	q := r.db.WithContext(ctx).Model(&models.JobDescription{})

	if f.Status != "" {
		q = q.Where("application_status = ?", f.Status)
	}
	if f.Archived != nil {
		q = q.Where("is_archived = ?", *f.Archived)
	}
	if f.Company != "" {
		q = q.Where("company ILIKE ?", "%"+f.Company+"%")
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("(title ILIKE ? OR company ILIKE ? OR role ILIKE ? OR location ILIKE ? OR raw_text ILIKE ?)",
			like, like, like, like, like)
	}

	var rows []models.JobDescription
	err := q.Order("sequential_id DESC").Find(&rows).Error
	return rows, err
}

func (r *jobRepo) GetByID(ctx context.Context, id string) (*models.JobDescription, error) {
	var job models.JobDescription
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&job).Error
	if err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

func (r *jobRepo) Create(ctx context.Context, job *models.JobDescription, history *models.StatusHistory, activity *models.ActivityLog) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", sequentialLockKey).Error; err != nil {
			return err
		}

		var max int
		if err := tx.Model(&models.JobDescription{}).
			Select("COALESCE(MAX(sequential_id), 0)").
			Scan(&max).Error; err != nil {
			return err
		}
		job.SequentialID = max + 1

		if err := tx.Omit(clause.Associations).Create(job).Error; err != nil {
			return err
		}
		return appendAudit(tx, history, activity)
	}))
}

func (r *jobRepo) Restore(ctx context.Context, job *models.JobDescription) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", sequentialLockKey).Error; err != nil {
			return err
		}

		taken := int64(1)
		if job.SequentialID > 0 {
			if err := tx.Model(&models.JobDescription{}).
				Where("sequential_id = ?", job.SequentialID).
				Count(&taken).Error; err != nil {
				return err
			}
		}
		if taken > 0 {
			var max int
			if err := tx.Model(&models.JobDescription{}).
				Select("COALESCE(MAX(sequential_id), 0)").
				Scan(&max).Error; err != nil {
				return err
			}
			job.SequentialID = max + 1
		}
		return tx.Omit(clause.Associations).Create(job).Error
	}))
}

func (r *jobRepo) Update(ctx context.Context, job *models.JobDescription, history *models.StatusHistory, activity *models.ActivityLog) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.JobDescription{ID: job.ID}).
			Select("*").
			Omit("id", "sequential_id", "created_at", clause.Associations).
			Updates(job)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrNotFound
		}
		return appendAudit(tx, history, activity)
	}))
}

func appendAudit(tx *gorm.DB, history *models.StatusHistory, activity *models.ActivityLog) error {
	if history != nil {
		if err := tx.Create(history).Error; err != nil {
			return err
		}
	}
	if activity != nil {
		if err := tx.Create(activity).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *jobRepo) Delete(ctx context.Context, id string) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// children first, the foreign keys do not cascade
		children := []any{
			&models.ActivityLog{},
			&models.StatusHistory{},
			&models.JobResumeLink{},
			&models.JobCoverLetterLink{},
		}
		for _, m := range children {
			if err := tx.Where("job_description_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.JobDescription{}).
			Where("duplicate_of_id = ?", id).
			Update("duplicate_of_id", nil).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&models.JobDescription{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrNotFound
		}
		return nil
	}))
}

func (r *jobRepo) History(ctx context.Context, jobID string) ([]models.StatusHistory, error) {
	var rows []models.StatusHistory
	err := r.db.WithContext(ctx).
		Where("job_description_id = ?", jobID).
		Order("date DESC").
		Find(&rows).Error
	return rows, err
}

func (r *jobRepo) Activity(ctx context.Context, jobID string, limit int) ([]models.ActivityLog, error) {
	q := r.db.WithContext(ctx).
		Where("job_description_id = ?", jobID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []models.ActivityLog
	err := q.Find(&rows).Error
	return rows, err
}

func (r *jobRepo) AppendHistory(ctx context.Context, h *models.StatusHistory) error {
	return translate(r.db.WithContext(ctx).Create(h).Error)
}

func (r *jobRepo) AppendActivity(ctx context.Context, a *models.ActivityLog) error {
	return translate(r.db.WithContext(ctx).Create(a).Error)
}

func (r *jobRepo) Stats(ctx context.Context) (models.JobStats, error) {
	var out models.JobStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.JobDescription{}).Count(&out.Total).Error; err != nil {
		return out, err
	}
	if err := db.Model(&models.JobDescription{}).Where("is_archived = ?", true).Count(&out.Archived).Error; err != nil {
		return out, err
	}

	var rows []struct {
		Status string
		N      int64
	}
	err := db.Model(&models.JobDescription{}).
		Select("application_status AS status, COUNT(*) AS n").
		Group("application_status").
		Scan(&rows).Error
	if err != nil {
		return out, err
	}
	for _, row := range rows {
		switch models.ApplicationStatus(row.Status) {
		case models.StatusApplied:
			out.Applied = row.N
		case models.StatusInterviewing:
			out.Interviewing = row.N
		case models.StatusRejected:
			out.Rejected = row.N
		case models.StatusOffered:
			out.Offered = row.N
		case models.StatusPending:
			out.Pending = row.N
		}
	}
	return out, nil
}

func (r *jobRepo) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{
			&models.ActivityLog{},
			&models.StatusHistory{},
			&models.JobResumeLink{},
			&models.JobCoverLetterLink{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Model(&models.JobDescription{}).
			Update("duplicate_of_id", nil).Error; err != nil {
			return err
		}
		res := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.JobDescription{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}
