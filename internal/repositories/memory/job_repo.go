package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/utils"
)

type jobRepo struct {
	s *Store
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func matches(j models.JobDescription, f models.JobFilter) bool {
	if f.Status != "" && string(j.ApplicationStatus) != f.Status {
		return false
	}
	if f.Archived != nil && j.IsArchived != *f.Archived {
		return false
	}
	if f.Company != "" && !containsFold(j.Company, f.Company) {
		return false
	}
	if f.Search != "" {
		hit := false
		for _, field := range []string{j.Title, j.Company, j.Role, j.Location, j.RawText} {
			if containsFold(field, f.Search) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func (r *jobRepo) List(_ context.Context, f models.JobFilter) ([]models.JobDescription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.JobDescription{}
	for _, j := range r.s.jobs {
		if matches(j, f) {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].SequentialID > out[b].SequentialID })
	return out, nil
}

func (r *jobRepo) GetByID(_ context.Context, id string) (*models.JobDescription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	j, ok := r.s.jobs[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &j, nil
}

func (r *jobRepo) Create(_ context.Context, job *models.JobDescription, history *models.StatusHistory, activity *models.ActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.jobs[job.ID]; exists {
		return utils.ErrConflict
	}
	max := 0
	for _, j := range r.s.jobs {
		if j.SequentialID > max {
			max = j.SequentialID
		}
	}
	job.SequentialID = max + 1

	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	r.s.jobs[job.ID] = *job
	r.appendAudit(history, activity)
	return nil
}

func (r *jobRepo) Restore(_ context.Context, job *models.JobDescription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.jobs[job.ID]; exists {
		return utils.ErrConflict
	}
	max, taken := 0, false
	for _, j := range r.s.jobs {
		if j.SequentialID > max {
			max = j.SequentialID
		}
		if j.SequentialID == job.SequentialID {
			taken = true
		}
	}
	if job.SequentialID <= 0 || taken {
		job.SequentialID = max + 1
	}

	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = now
	}
	r.s.jobs[job.ID] = *job
	return nil
}

func (r *jobRepo) Update(_ context.Context, job *models.JobDescription, history *models.StatusHistory, activity *models.ActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.jobs[job.ID]
	if !ok {
		return utils.ErrNotFound
	}
	job.SequentialID = prev.SequentialID
	job.CreatedAt = prev.CreatedAt
	job.UpdatedAt = time.Now().UTC()

	r.s.jobs[job.ID] = *job
	r.appendAudit(history, activity)
	return nil
}

func (r *jobRepo) appendAudit(history *models.StatusHistory, activity *models.ActivityLog) {
	if history != nil {
		r.s.history = append(r.s.history, *history)
	}
	if activity != nil {
		r.s.activity = append(r.s.activity, *activity)
	}
}

func (r *jobRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.jobs[id]; !ok {
		return utils.ErrNotFound
	}

	keptH := r.s.history[:0]
	for _, h := range r.s.history {
		if h.JobDescriptionID != id {
			keptH = append(keptH, h)
		}
	}
	r.s.history = keptH

	keptA := r.s.activity[:0]
	for _, a := range r.s.activity {
		if a.JobDescriptionID != id {
			keptA = append(keptA, a)
		}
	}
	r.s.activity = keptA

	r.s.dropJobLinks(id)

	for key, j := range r.s.jobs {
		if j.DuplicateOfID != nil && *j.DuplicateOfID == id {
			j.DuplicateOfID = nil
			r.s.jobs[key] = j
		}
	}
	delete(r.s.jobs, id)
	return nil
}

func (r *jobRepo) History(_ context.Context, jobID string) ([]models.StatusHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.StatusHistory{}
	for _, h := range r.s.history {
		if h.JobDescriptionID == jobID {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Date.After(out[b].Date) })
	return out, nil
}

func (r *jobRepo) Activity(_ context.Context, jobID string, limit int) ([]models.ActivityLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.ActivityLog{}
	// walk backwards so equal timestamps keep newest-first insertion order
	for i := len(r.s.activity) - 1; i >= 0; i-- {
		if r.s.activity[i].JobDescriptionID == jobID {
			out = append(out, r.s.activity[i])
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *jobRepo) AppendHistory(_ context.Context, h *models.StatusHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.jobs[h.JobDescriptionID]; !ok {
		return utils.ErrNotFound
	}
	r.s.history = append(r.s.history, *h)
	return nil
}

func (r *jobRepo) AppendActivity(_ context.Context, a *models.ActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.jobs[a.JobDescriptionID]; !ok {
		return utils.ErrNotFound
	}
	r.s.activity = append(r.s.activity, *a)
	return nil
}

func (r *jobRepo) Stats(_ context.Context) (models.JobStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out models.JobStats
	for _, j := range r.s.jobs {
		out.Total++
		if j.IsArchived {
			out.Archived++
		}
		switch j.ApplicationStatus {
		case models.StatusApplied:
			out.Applied++
		case models.StatusInterviewing:
			out.Interviewing++
		case models.StatusRejected:
			out.Rejected++
		case models.StatusOffered:
			out.Offered++
		case models.StatusPending:
			out.Pending++
		}
	}
	return out, nil
}

func (r *jobRepo) DeleteAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := int64(len(r.s.jobs))
	r.s.jobs = map[string]models.JobDescription{}
	r.s.history = nil
	r.s.activity = nil
	r.s.links = map[string][]models.DocumentLink{}
	return n, nil
}

// ChildCounts reports how many history, activity and link rows reference jobID.
func (s *Store) ChildCounts(jobID string) (history, activity, links int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, h := range s.history {
		if h.JobDescriptionID == jobID {
			history++
		}
	}
	for _, a := range s.activity {
		if a.JobDescriptionID == jobID {
			activity++
		}
	}
	for _, ls := range s.links {
		for _, l := range ls {
			if l.JobDescriptionID == jobID {
				links++
			}
		}
	}
	return history, activity, links
}
