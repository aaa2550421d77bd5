package memory

import (
	"context"
	"sort"
	"time"

	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/utils"
)

type documentRepo struct {
	s    *Store
	kind models.DocumentKind
}

func (r *documentRepo) Kind() models.DocumentKind { return r.kind }

func (r *documentRepo) table() map[string]models.Document {
	return r.s.docs[r.kind.Name]
}

func (r *documentRepo) List(_ context.Context, search string) ([]models.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.Document{}
	for _, d := range r.table() {
		if search != "" && !containsFold(d.Name, search) && !containsFold(d.TargetCompany, search) &&
			!containsFold(d.TargetRole, search) && !containsFold(d.DetectedCompany, search) {
			continue
		}
		d.FileContent = ""
		out = append(out, d)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].UpdatedAt.After(out[b].UpdatedAt) })
	return out, nil
}

func (r *documentRepo) GetByID(_ context.Context, id string) (*models.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.table()[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &d, nil
}

func (r *documentRepo) Create(_ context.Context, d *models.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.table()[d.ID]; exists {
		return utils.ErrConflict
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = now
	}
	r.table()[d.ID] = *d
	return nil
}

func (r *documentRepo) Update(_ context.Context, d *models.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.table()[d.ID]
	if !ok {
		return utils.ErrNotFound
	}
	d.CreatedAt = prev.CreatedAt
	r.table()[d.ID] = *d
	return nil
}

func (r *documentRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.table()[id]; !ok {
		return utils.ErrNotFound
	}
	kept := r.s.links[r.kind.Name][:0]
	for _, l := range r.s.links[r.kind.Name] {
		if l.DocumentID != id {
			kept = append(kept, l)
		}
	}
	r.s.links[r.kind.Name] = kept
	delete(r.table(), id)
	return nil
}

func (r *documentRepo) Link(_ context.Context, l *models.DocumentLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.jobs[l.JobDescriptionID]; !ok {
		return utils.ErrNotFound
	}
	if _, ok := r.table()[l.DocumentID]; !ok {
		return utils.ErrNotFound
	}
	for _, existing := range r.s.links[r.kind.Name] {
		if existing.JobDescriptionID == l.JobDescriptionID && existing.DocumentID == l.DocumentID {
			return utils.ErrConflict
		}
	}
	r.s.links[r.kind.Name] = append(r.s.links[r.kind.Name], *l)
	return nil
}

func (r *documentRepo) Unlink(_ context.Context, jobID, documentID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	links := r.s.links[r.kind.Name]
	for i, l := range links {
		if l.JobDescriptionID == jobID && l.DocumentID == documentID {
			r.s.links[r.kind.Name] = append(links[:i], links[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *documentRepo) LinksForJobs(_ context.Context, jobIDs []string) ([]models.DocumentLink, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var want map[string]bool
	if jobIDs != nil {
		want = make(map[string]bool, len(jobIDs))
		for _, id := range jobIDs {
			want[id] = true
		}
	}

	out := []models.DocumentLink{}
	for _, l := range r.s.links[r.kind.Name] {
		if want == nil || want[l.JobDescriptionID] {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *documentRepo) LinksForDocument(_ context.Context, documentID string) ([]models.DocumentLink, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.DocumentLink{}
	for _, l := range r.s.links[r.kind.Name] {
		if l.DocumentID == documentID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *documentRepo) Summaries(_ context.Context, ids []string) ([]models.DocumentSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.DocumentSummary{}
	for _, id := range ids {
		d, ok := r.table()[id]
		if !ok {
			continue
		}
		out = append(out, models.DocumentSummary{
			ID:            d.ID,
			Name:          d.Name,
			FileName:      d.FileName,
			TargetCompany: d.TargetCompany,
			TargetRole:    d.TargetRole,
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

func (r *documentRepo) DeleteAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := int64(len(r.table()))
	r.s.docs[r.kind.Name] = map[string]models.Document{}
	delete(r.s.links, r.kind.Name)
	return n, nil
}
