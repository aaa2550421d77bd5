package postgres

import (
	"context"
	"time"

	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type scraperCacheRepo struct {
	db *gorm.DB
}

func NewScraperCacheRepo(db *gorm.DB) repositories.ScraperCacheRepository {
	return &scraperCacheRepo{db: db}
}

func (r *scraperCacheRepo) GetByHash(ctx context.Context, hash string) (*models.ScraperCache, error) {
	var row models.ScraperCache
	if err := r.db.WithContext(ctx).Where("input_hash = ?", hash).Take(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (r *scraperCacheRepo) Upsert(ctx context.Context, row *models.ScraperCache) error {
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "input_hash"}},
			DoUpdates: clause.AssignmentColumns([]string{"input_preview", "result", "expires_at", "created_at"}),
		}).
		Create(row).Error)
}

func (r *scraperCacheRepo) List(ctx context.Context) ([]models.ScraperCache, error) {
	var rows []models.ScraperCache
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *scraperCacheRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.ScraperCache{})
	return res.RowsAffected, res.Error
}

func (r *scraperCacheRepo) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.ScraperCache{})
	return res.RowsAffected, res.Error
}
