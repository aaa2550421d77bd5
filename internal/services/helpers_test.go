package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yoockh/applytrack/internal/events"
	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/repositories/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ActivityEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type env struct {
	store        *memory.Store
	pub          *recordingPublisher
	jobs         JobService
	resumes      DocumentService
	coverLetters DocumentService
	migration    MigrationService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	return &env{
		store:        store,
		pub:          pub,
		jobs:         NewJobService(store.Jobs(), store.Resumes(), store.CoverLetters(), pub, nil),
		resumes:      NewDocumentService(store.Resumes(), store.Jobs()),
		coverLetters: NewDocumentService(store.CoverLetters(), store.Jobs()),
		migration:    NewMigrationService(store.Jobs(), store.Resumes(), store.CoverLetters(), store.ScraperCache(), nil),
	}
}

func (e *env) createJob(t *testing.T, title, company string) *models.JobView {
	t.Helper()
	j, err := e.jobs.Create(context.Background(), JobInput{Title: title, Company: company, RawText: "posting for " + title})
	require.NoError(t, err)
	return j
}

func (e *env) createResume(t *testing.T, name string) *models.DocumentView {
	t.Helper()
	d, err := e.resumes.Create(context.Background(), DocumentInput{Name: name})
	require.NoError(t, err)
	return d
}

func strPtr(s string) *string { return &s }
