//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yoockh/applytrack/config"
	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/utils"
)

// openTestDB connects to POSTGRES_TEST_URI and starts from empty tables.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	uri := os.Getenv("POSTGRES_TEST_URI")
	if uri == "" {
		t.Skip("POSTGRES_TEST_URI not set")
	}
	db, err := gorm.Open(pgdriver.Open(uri), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.MigratePostgres(db))

	ctx := context.Background()
	_, err = NewJobRepo(db).DeleteAll(ctx)
	require.NoError(t, err)
	_, err = NewResumeRepo(db).DeleteAll(ctx)
	require.NoError(t, err)
	_, err = NewCoverLetterRepo(db).DeleteAll(ctx)
	require.NoError(t, err)
	return db
}

func newJob(title string) *models.JobDescription {
	return &models.JobDescription{
		ID:                uuid.NewString(),
		Title:             title,
		Company:           "Acme",
		RawText:           "posting for " + title,
		ApplicationStatus: models.StatusPending,
		AIParseStatus:     models.ParseUnparsed,
	}
}

func TestJobRepoTranslatesErrors(t *testing.T) {
	db := openTestDB(t)
	jobs := NewJobRepo(db)
	ctx := context.Background()

	_, err := jobs.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, utils.ErrNotFound)

	j := newJob("Engineer")
	require.NoError(t, jobs.Create(ctx, j, nil, nil))
	dup := newJob("Engineer again")
	dup.ID = j.ID
	assert.ErrorIs(t, jobs.Create(ctx, dup, nil, nil), utils.ErrConflict)

	orphan := &models.ActivityLog{ID: uuid.NewString(), JobDescriptionID: uuid.NewString(), Type: models.ActivityJobCreated, CreatedAt: time.Now().UTC()}
	assert.ErrorIs(t, jobs.AppendActivity(ctx, orphan), utils.ErrNotFound)

	assert.ErrorIs(t, jobs.Update(ctx, newJob("missing"), nil, nil), utils.ErrNotFound)
}

func TestJobRepoSequentialIDsUnderConcurrentCreates(t *testing.T) {
	db := openTestDB(t)
	jobs := NewJobRepo(db)
	ctx := context.Background()

	const n = 12
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		title := fmt.Sprintf("Job %d", i)
		g.Go(func() error { return jobs.Create(gctx, newJob(title), nil, nil) })
	}
	require.NoError(t, g.Wait())

	rows, err := jobs.List(ctx, models.JobFilter{})
	require.NoError(t, err)
	seqs := make([]int, 0, len(rows))
	for _, r := range rows {
		seqs = append(seqs, r.SequentialID)
	}
	sort.Ints(seqs)
	want := make([]int, n)
	for i := range want {
		want[i] = i + 1
	}
	assert.Equal(t, want, seqs)
}

func TestJobRepoRestoreKeepsFreeSequentialID(t *testing.T) {
	db := openTestDB(t)
	jobs := NewJobRepo(db)
	ctx := context.Background()

	first := newJob("First")
	require.NoError(t, jobs.Create(ctx, first, nil, nil))

	kept := newJob("Kept")
	kept.SequentialID = 5
	require.NoError(t, jobs.Restore(ctx, kept))
	assert.Equal(t, 5, kept.SequentialID)

	clash := newJob("Clash")
	clash.SequentialID = 1
	require.NoError(t, jobs.Restore(ctx, clash))
	assert.Equal(t, 6, clash.SequentialID)

	next := newJob("Next")
	require.NoError(t, jobs.Create(ctx, next, nil, nil))
	assert.Equal(t, 7, next.SequentialID)
}

func TestDeletesRemoveLinkRows(t *testing.T) {
	db := openTestDB(t)
	jobs := NewJobRepo(db)
	resumes := NewResumeRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()

	j1, j2 := newJob("One"), newJob("Two")
	require.NoError(t, jobs.Create(ctx, j1, nil, nil))
	require.NoError(t, jobs.Create(ctx, j2, nil, nil))
	cv := &models.Document{ID: uuid.NewString(), Name: "CV", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, resumes.Create(ctx, cv))

	for _, jobID := range []string{j1.ID, j2.ID} {
		require.NoError(t, resumes.Link(ctx, &models.DocumentLink{ID: uuid.NewString(), JobDescriptionID: jobID, DocumentID: cv.ID, CreatedAt: now}))
	}
	again := &models.DocumentLink{ID: uuid.NewString(), JobDescriptionID: j1.ID, DocumentID: cv.ID, CreatedAt: now}
	assert.ErrorIs(t, resumes.Link(ctx, again), utils.ErrConflict)

	require.NoError(t, jobs.Delete(ctx, j1.ID))
	links, err := resumes.LinksForDocument(ctx, cv.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, j2.ID, links[0].JobDescriptionID)

	require.NoError(t, resumes.Delete(ctx, cv.ID))
	links, err = resumes.LinksForJobs(ctx, []string{j2.ID})
	require.NoError(t, err)
	assert.Empty(t, links)

	removed, err := resumes.Unlink(ctx, j2.ID, cv.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}
