package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/applytrack/internal/cache"
	"github.com/yoockh/applytrack/internal/hashutil"
	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/providers/llm"
	"github.com/yoockh/applytrack/internal/repositories"
	"github.com/yoockh/applytrack/internal/utils"
)

type fakeProvider struct {
	out   string
	err   error
	calls atomic.Int32
}

func (f *fakeProvider) Complete(context.Context, string) (string, error) {
	f.calls.Add(1)
	return f.out, f.err
}
func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) Close() error { return nil }

const goodCompletion = "```json\n{\"title\":\"Platform Engineer\",\"company\":\"Acme\",\"location\":\"Remote\",\"skills\":[\"Go\",\"Kubernetes\"],\"salary\":\"$120k-150k\"}\n```"

func newParseEnv(t *testing.T, p llm.Provider) (*env, ParseService) {
	t.Helper()
	e := newEnv(t)
	svc := NewParseService(p, cache.NewMemoryCache(16, time.Minute), e.store.ScraperCache(), e.store.Jobs(), e.pub, nil, ParseConfig{})
	return e, svc
}

func TestParseCachesByNormalizedInput(t *testing.T) {
	fp := &fakeProvider{out: goodCompletion}
	_, svc := newParseEnv(t, fp)
	ctx := context.Background()

	first := svc.Parse(ctx, "We need a   Platform Engineer", "")
	require.True(t, first.Success)
	assert.False(t, first.Cached)
	assert.Equal(t, "Platform Engineer", first.Data.Title)
	require.NotNil(t, first.Data.SalaryMin)
	assert.Equal(t, 120000, *first.Data.SalaryMin)

	second := svc.Parse(ctx, "we need a platform engineer", "")
	require.True(t, second.Success)
	assert.True(t, second.Cached)
	assert.Equal(t, int32(1), fp.calls.Load())

	// different context is a different key
	third := svc.Parse(ctx, "We need a Platform Engineer", "senior resume")
	require.True(t, third.Success)
	assert.False(t, third.Cached)
	assert.Equal(t, int32(2), fp.calls.Load())
}

func TestParseFallsBackToPersistedCache(t *testing.T) {
	fp := &fakeProvider{out: goodCompletion}
	e, svc := newParseEnv(t, fp)
	ctx := context.Background()

	require.True(t, svc.Parse(ctx, "posting text", "").Success)

	// fresh short-lived cache, same table
	again := NewParseService(fp, cache.NewMemoryCache(16, time.Minute), e.store.ScraperCache(), e.store.Jobs(), nil, nil, ParseConfig{})
	res := again.Parse(ctx, "posting text", "")
	require.True(t, res.Success)
	assert.True(t, res.Cached)
	assert.Equal(t, int32(1), fp.calls.Load())

	row, err := e.store.ScraperCache().GetByHash(ctx, parseKeyPrefix+hashutil.Key("posting text", ""))
	require.NoError(t, err)
	assert.Equal(t, "posting text", row.InputPreview)
}

func TestParseFailureKinds(t *testing.T) {
	cases := []struct {
		name string
		fp   *fakeProvider
		want ParseErrorKind
	}{
		{"auth", &fakeProvider{err: &llm.StatusError{StatusCode: 401, Kind: llm.ErrAuth}}, KindAuth},
		{"rate limit", &fakeProvider{err: fmt.Errorf("wrapped: %w", llm.ErrRateLimited)}, KindRateLimit},
		{"network", &fakeProvider{err: llm.ErrNetwork}, KindNetwork},
		{"upstream", &fakeProvider{err: llm.ErrUpstream}, KindUpstream},
		{"deadline", &fakeProvider{err: context.DeadlineExceeded}, KindNetwork},
		{"canceled", &fakeProvider{err: fmt.Errorf("googleai: %w", context.Canceled)}, KindNetwork},
		{"bad json", &fakeProvider{out: "I cannot help with that"}, KindInvalidJSON},
		{"missing field", &fakeProvider{out: `{"title":"Engineer"}`}, KindMissingField},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, svc := newParseEnv(t, tc.fp)
			res := svc.Parse(context.Background(), "some posting", "")
			assert.False(t, res.Success)
			require.NotNil(t, res.Error)
			assert.Equal(t, tc.want, res.Error.Kind)
		})
	}
}

func TestParseInputAndAvailability(t *testing.T) {
	_, svc := newParseEnv(t, nil)
	ctx := context.Background()

	assert.False(t, svc.Available())
	assert.Equal(t, KindInvalidInput, svc.Parse(ctx, "   ", "").Error.Kind)
	assert.Equal(t, KindUnavailable, svc.Parse(ctx, "posting", "").Error.Kind)
}

func TestParseStripsHTML(t *testing.T) {
	fp := &fakeProvider{out: goodCompletion}
	_, svc := newParseEnv(t, fp)
	ctx := context.Background()

	require.True(t, svc.Parse(ctx, "<html><body><h1>Platform Engineer</h1><p>Acme</p></body></html>", "").Success)
	res := svc.Parse(ctx, "Platform Engineer\nAcme", "")
	assert.True(t, res.Cached)
}

func TestParseJobMergesIntoEmptyFields(t *testing.T) {
	fp := &fakeProvider{out: goodCompletion}
	e, svc := newParseEnv(t, fp)
	ctx := context.Background()

	created, err := e.jobs.Create(ctx, JobInput{Title: "Engineer", Company: "Acme", RawText: "posting", Location: "Berlin", Keywords: []string{"go"}})
	require.NoError(t, err)

	job, res, err := svc.ParseJob(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, models.ParseParsed, job.AIParseStatus)
	assert.Equal(t, "Berlin", job.Location)
	assert.Equal(t, "Platform Engineer", job.Role)
	assert.Equal(t, []string{"go", "Kubernetes"}, []string(job.Keywords))
	assert.NotEmpty(t, job.ExtractedInfo)
	assert.Contains(t, e.pub.types(), models.ActivityAIParsed)
}

func TestParseJobRecordsFailure(t *testing.T) {
	fp := &fakeProvider{err: llm.ErrRateLimited}
	e, svc := newParseEnv(t, fp)
	ctx := context.Background()
	created := e.createJob(t, "Engineer", "Acme")

	job, res, err := svc.ParseJob(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, models.ParseFailed, job.AIParseStatus)
	assert.Contains(t, job.AIParseError, "rate_limit")

	// a failed job can be parsed again on request
	fp.err = nil
	fp.out = goodCompletion
	job, res, err = svc.ParseJob(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, models.ParseParsed, job.AIParseStatus)
	assert.Empty(t, job.AIParseError)
}

func TestBeginJobRejectsConcurrentParse(t *testing.T) {
	fp := &fakeProvider{out: goodCompletion}
	e, svc := newParseEnv(t, fp)
	ctx := context.Background()
	created := e.createJob(t, "Engineer", "Acme")

	_, err := svc.BeginJob(ctx, created.ID)
	require.NoError(t, err)
	_, err = svc.BeginJob(ctx, created.ID)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))

	_, err = svc.BeginJob(ctx, "missing")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

// blockingProvider waits for the caller to give up.
type blockingProvider struct{}

func (blockingProvider) Complete(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
func (blockingProvider) Name() string { return "blocking" }
func (blockingProvider) Close() error { return nil }

// ctxJobs refuses writes on a finished context, like a real database driver.
type ctxJobs struct {
	repositories.JobRepository
}

func (r ctxJobs) Update(ctx context.Context, job *models.JobDescription, h *models.StatusHistory, a *models.ActivityLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.JobRepository.Update(ctx, job, h, a)
}

func TestParseJobTimeoutRecordsFailure(t *testing.T) {
	e := newEnv(t)
	svc := NewParseService(blockingProvider{}, nil, nil, ctxJobs{e.store.Jobs()}, e.pub, nil, ParseConfig{})
	created := e.createJob(t, "Engineer", "Acme")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	job, res, err := svc.ParseJob(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Error)
	assert.Equal(t, KindNetwork, res.Error.Kind)
	assert.Equal(t, models.ParseFailed, job.AIParseStatus)

	stored, err := e.store.Jobs().GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ParseFailed, stored.AIParseStatus)
	assert.Contains(t, stored.AIParseError, "network")

	_, err = svc.BeginJob(context.Background(), created.ID)
	assert.NoError(t, err)
}

func TestBeginJobTakesOverStaleParse(t *testing.T) {
	e, svc := newParseEnv(t, &fakeProvider{out: goodCompletion})
	ctx := context.Background()
	created := e.createJob(t, "Engineer", "Acme")

	_, err := svc.BeginJob(ctx, created.ID)
	require.NoError(t, err)

	ps := svc.(*parseService)
	ps.now = func() time.Time { return time.Now().UTC().Add(time.Minute) }
	_, err = svc.BeginJob(ctx, created.ID)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))

	ps.now = func() time.Time { return time.Now().UTC().Add(ps.cfg.StaleAfter + time.Second) }
	job, err := svc.BeginJob(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ParseParsing, job.AIParseStatus)
}

func TestParseCacheAndUserCacheDoNotCollide(t *testing.T) {
	fp := &fakeProvider{out: goodCompletion}
	e, svc := newParseEnv(t, fp)
	users := NewScraperCacheService(e.store.ScraperCache())
	ctx := context.Background()

	_, err := users.Store(ctx, "posting text", json.RawMessage(`{"title":"Stored by hand"}`), 0)
	require.NoError(t, err)

	res := svc.Parse(ctx, "posting text", "")
	require.True(t, res.Success)
	assert.False(t, res.Cached)
	assert.Equal(t, "Platform Engineer", res.Data.Title)
	assert.Equal(t, int32(1), fp.calls.Load())

	row, err := users.Lookup(ctx, "posting text")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Stored by hand"}`, string(row.Result))

	rows, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
