package memory

import (
	"context"
	"sort"
	"time"

	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/utils"
)

type scraperCacheRepo struct {
	s *Store
}

func (r *scraperCacheRepo) GetByHash(_ context.Context, hash string) (*models.ScraperCache, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.cache[hash]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &row, nil
}

func (r *scraperCacheRepo) Upsert(_ context.Context, row *models.ScraperCache) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if prev, ok := r.s.cache[row.InputHash]; ok {
		row.ID = prev.ID
	}
	r.s.cache[row.InputHash] = *row
	return nil
}

func (r *scraperCacheRepo) List(_ context.Context) ([]models.ScraperCache, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.ScraperCache, 0, len(r.s.cache))
	for _, row := range r.s.cache {
		out = append(out, row)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (r *scraperCacheRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for hash, row := range r.s.cache {
		if row.Expired(now) {
			delete(r.s.cache, hash)
			n++
		}
	}
	return n, nil
}

func (r *scraperCacheRepo) DeleteAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := int64(len(r.s.cache))
	r.s.cache = map[string]models.ScraperCache{}
	return n, nil
}
