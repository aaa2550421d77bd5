package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yoockh/applytrack/internal/hashutil"
	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/repositories"
	"github.com/yoockh/applytrack/internal/utils"
)

const (
	DefaultScraperCacheTTL = 7 * 24 * time.Hour
	inputPreviewRunes      = 200

	// Parse results and user-stored entries share the scraper_cache table.
	parseKeyPrefix  = "parse:"
	scrapeKeyPrefix = "scrape:"
)

func scrapeKey(input string) string { return scrapeKeyPrefix + hashutil.Key(input, "") }

type ScraperCacheService interface {
	Lookup(ctx context.Context, input string) (*models.ScraperCache, error)
	Store(ctx context.Context, input string, result json.RawMessage, ttl time.Duration) (*models.ScraperCache, error)
	List(ctx context.Context) ([]models.ScraperCache, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type scraperCacheService struct {
	repo repositories.ScraperCacheRepository
	now  func() time.Time
}

func NewScraperCacheService(repo repositories.ScraperCacheRepository) ScraperCacheService {
	return &scraperCacheService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func preview(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > inputPreviewRunes {
		r = r[:inputPreviewRunes]
	}
	return string(r)
}

// Lookup treats expired rows as misses; they stay stored until CleanupExpired.
func (s *scraperCacheService) Lookup(ctx context.Context, input string) (*models.ScraperCache, error) {
	const op = "ScraperCacheService.Lookup"

	if strings.TrimSpace(input) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "input is required", nil)
	}
	row, err := s.repo.GetByHash(ctx, scrapeKey(input))
	if err != nil {
		return nil, utils.Wrap(op, "cache entry", err)
	}
	if row.Expired(s.now()) {
		return nil, utils.E(utils.CodeNotFound, op, "cache entry expired", utils.ErrNotFound)
	}
	return row, nil
}

func (s *scraperCacheService) Store(ctx context.Context, input string, result json.RawMessage, ttl time.Duration) (*models.ScraperCache, error) {
	const op = "ScraperCacheService.Store"

	if strings.TrimSpace(input) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "input is required", nil)
	}
	if len(result) == 0 || !json.Valid(result) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "result must be valid JSON", nil)
	}
	if ttl <= 0 {
		ttl = DefaultScraperCacheTTL
	}

	now := s.now()
	row := &models.ScraperCache{
		ID:           uuid.NewString(),
		InputHash:    scrapeKey(input),
		InputPreview: preview(input),
		Result:       datatypes.JSON(result),
		ExpiresAt:    now.Add(ttl),
		CreatedAt:    now,
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, utils.Wrap(op, "failed to store cache entry", err)
	}
	return row, nil
}

func (s *scraperCacheService) List(ctx context.Context) ([]models.ScraperCache, error) {
	const op = "ScraperCacheService.List"

	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, utils.Wrap(op, "failed to list cache entries", err)
	}
	return rows, nil
}

func (s *scraperCacheService) CleanupExpired(ctx context.Context) (int64, error) {
	const op = "ScraperCacheService.CleanupExpired"

	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, utils.Wrap(op, "failed to delete expired entries", err)
	}
	return n, nil
}
