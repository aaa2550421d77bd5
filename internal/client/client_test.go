package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/applytrack/internal/api/handlers"
	"github.com/yoockh/applytrack/internal/api/routes"
	"github.com/yoockh/applytrack/internal/cache"
	"github.com/yoockh/applytrack/internal/events"
	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/repositories/memory"
	"github.com/yoockh/applytrack/internal/services"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	hub := events.NewHub()
	jobs := services.NewJobService(store.Jobs(), store.Resumes(), store.CoverLetters(), hub, nil)
	parser := services.NewParseService(nil, cache.NewMemoryCache(8, time.Minute), store.ScraperCache(), store.Jobs(), hub, nil, services.ParseConfig{})

	r := gin.New()
	routes.RegisterRoutes(r, routes.Deps{
		Jobs:         handlers.NewJobHandler(jobs, parser, nil),
		Resumes:      handlers.NewDocumentHandler(services.NewDocumentService(store.Resumes(), store.Jobs())),
		CoverLetters: handlers.NewDocumentHandler(services.NewDocumentService(store.CoverLetters(), store.Jobs())),
		Migration:    handlers.NewMigrationHandler(services.NewMigrationService(store.Jobs(), store.Resumes(), store.CoverLetters(), store.ScraperCache(), nil)),
		ScraperCache: handlers.NewScraperCacheHandler(services.NewScraperCacheService(store.ScraperCache())),
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithTimeout(5*time.Second))
}

func TestClientJobs(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	require.NoError(t, c.Ping(ctx))

	job, err := c.CreateJob(ctx, services.JobInput{Title: "SRE", Company: "Acme", RawText: "Run our clusters"})
	require.NoError(t, err)
	assert.Equal(t, 1, job.SequentialID)

	status := "interviewing"
	job2, err := c.UpdateJob(ctx, job.ID, services.JobPatch{ApplicationStatus: &status})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInterviewing, job2.ApplicationStatus)

	detail, err := c.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, detail.StatusHistory, 2)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Interviewing)

	archived := false
	list, err := c.ListJobs(ctx, JobListOptions{Archived: &archived, Search: "clusters"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = c.ArchiveJob(ctx, job.ID)
	require.NoError(t, err)
	list, err = c.ListJobs(ctx, JobListOptions{Archived: &archived})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, c.DeleteJob(ctx, job.ID))
	_, err = c.GetJob(ctx, job.ID)
	assert.True(t, IsNotFound(err))

	var ae *APIError
	_, err = c.CreateJob(ctx, services.JobInput{Company: "Acme"})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusBadRequest, ae.StatusCode)
	assert.Equal(t, "INVALID_ARGUMENT", ae.Code)
}

func TestClientDocuments(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	job, err := c.CreateJob(ctx, services.JobInput{Title: "Go Dev", Company: "Acme", RawText: "Go"})
	require.NoError(t, err)

	doc, err := c.Resumes().Upload(ctx, "cv.md", strings.NewReader("# Jane\nGo, Postgres"), UploadFields{TargetRole: "Go Dev"})
	require.NoError(t, err)
	assert.Equal(t, "cv.md", doc.FileName)
	assert.Contains(t, doc.TextContent, "Postgres")

	_, err = c.Resumes().Link(ctx, doc.ID, job.ID)
	require.NoError(t, err)
	_, err = c.Resumes().Link(ctx, doc.ID, job.ID)
	assert.True(t, IsAlreadyExists(err))

	jobs, err := c.Resumes().Jobs(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, job.ID, jobs[0].ID)

	require.NoError(t, c.Resumes().Unlink(ctx, doc.ID, job.ID))

	_, err = c.CoverLetters().Get(ctx, doc.ID)
	assert.True(t, IsNotFound(err))

	list, err := c.Resumes().List(ctx, "go dev")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestClientBackupAndCache(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.CreateJob(ctx, services.JobInput{Title: "QA", Company: "Beta", RawText: "Testing"})
	require.NoError(t, err)
	_, err = c.CacheStore(ctx, "posting text", json.RawMessage(`{"title":"QA"}`), time.Hour)
	require.NoError(t, err)

	b, err := c.Export(ctx)
	require.NoError(t, err)
	assert.Len(t, b.JobDescriptions, 1)
	assert.Len(t, b.ScraperCache, 1)

	_, err = c.ClearAll(ctx, "nope")
	require.Error(t, err)

	cleared, err := c.ClearAll(ctx, services.ClearAllConfirmation)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cleared.JobDescriptions)

	_, err = c.CacheLookup(ctx, "posting text")
	assert.True(t, IsNotFound(err))

	res, err := c.Import(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 1, res.JobDescriptions.Imported)
	assert.Equal(t, 1, res.ScraperCache.Imported)

	hit, err := c.CacheLookup(ctx, "posting text")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"QA"}`, string(hit.Result))

	n, err := c.CacheCleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClientParseWithoutProvider(t *testing.T) {
	c := newTestClient(t)
	res, err := c.ParseText(context.Background(), "Backend Engineer at Acme", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, services.KindUnavailable, res.Error.Kind)
}

func TestAPIErrorWithoutJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(srv.URL).Ping(context.Background())
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusBadGateway, ae.StatusCode)
	assert.Equal(t, "gateway down", ae.Message)
}
