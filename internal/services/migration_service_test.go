package services

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/applytrack/internal/backup"
	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/utils"
)

type jobShape struct {
	Title, Company, Status string
	Resumes, Covers        []string // document names
}

func shapes(t *testing.T, e *env) []jobShape {
	t.Helper()
	ctx := context.Background()
	jobs, err := e.jobs.List(ctx, models.JobFilter{})
	require.NoError(t, err)

	name := func(svc DocumentService, id string) string {
		d, err := svc.Get(ctx, id)
		require.NoError(t, err)
		return d.Name
	}
	out := make([]jobShape, 0, len(jobs))
	for _, j := range jobs {
		s := jobShape{Title: j.Title, Company: j.Company, Status: string(j.ApplicationStatus)}
		for _, id := range j.LinkedResumeIDs {
			s.Resumes = append(s.Resumes, name(e.resumes, id))
		}
		for _, id := range j.LinkedCoverLetterIDs {
			s.Covers = append(s.Covers, name(e.coverLetters, id))
		}
		sort.Strings(s.Resumes)
		sort.Strings(s.Covers)
		out = append(out, s)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Title < out[b].Title })
	return out
}

func seed(t *testing.T, e *env) {
	t.Helper()
	ctx := context.Background()
	a := e.createJob(t, "Engineer", "Acme")
	b := e.createJob(t, "Designer", "Globex")
	e.createJob(t, "Analyst", "Initech")
	r1 := e.createResume(t, "Backend CV")
	r2 := e.createResume(t, "Design CV")
	cl, err := e.coverLetters.Create(ctx, DocumentInput{Name: "Acme letter"})
	require.NoError(t, err)

	_, err = e.jobs.Update(ctx, a.ID, JobPatch{ApplicationStatus: strPtr("applied")})
	require.NoError(t, err)
	_, err = e.jobs.Update(ctx, b.ID, JobPatch{ApplicationStatus: strPtr("interviewing")})
	require.NoError(t, err)
	for _, l := range []struct{ doc, job string }{{r1.ID, a.ID}, {r2.ID, b.ID}, {r1.ID, b.ID}} {
		_, err = e.resumes.Link(ctx, l.doc, l.job)
		require.NoError(t, err)
	}
	_, err = e.coverLetters.Link(ctx, cl.ID, a.ID)
	require.NoError(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newEnv(t)
	seed(t, src)
	ctx := context.Background()

	exported, err := src.migration.Export(ctx)
	require.NoError(t, err)
	assert.Len(t, exported.JobDescriptions, 3)
	assert.Len(t, exported.Resumes, 2)

	// through the wire format, as the CLI and local data file do
	var buf bytes.Buffer
	require.NoError(t, backup.Encode(&buf, exported))
	decoded, err := backup.Decode(&buf)
	require.NoError(t, err)

	dst := newEnv(t)
	res, err := dst.migration.Import(ctx, decoded)
	require.NoError(t, err)
	assert.Equal(t, Counts{Imported: 3}, res.JobDescriptions)
	assert.Equal(t, Counts{Imported: 2}, res.Resumes)
	assert.Equal(t, Counts{Imported: 1}, res.CoverLetters)
	assert.Equal(t, Counts{Imported: 3}, res.ResumeLinks)
	assert.Equal(t, Counts{Imported: 1}, res.CoverLetterLinks)
	assert.Equal(t, 5, res.StatusHistory.Imported)

	assert.Equal(t, shapes(t, src), shapes(t, dst))

	// sequential ids survive the round trip
	jobs, err := dst.jobs.List(ctx, models.JobFilter{})
	require.NoError(t, err)
	bySeq := map[int]string{}
	for _, j := range jobs {
		bySeq[j.SequentialID] = j.Title
	}
	assert.Equal(t, map[int]string{1: "Engineer", 2: "Designer", 3: "Analyst"}, bySeq)
}

func TestImportIsolatesBadItems(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()

	b := backup.New(now)
	b.Resumes = []backup.Document{{ID: "r-legacy", Name: "CV", LinkedJobIDs: []string{"j-legacy", "ghost"}}, {ID: "bad"}}
	b.JobDescriptions = []backup.Job{
		{ID: "j-legacy", SequentialID: 4, Title: "Engineer", Company: "Acme", RawText: "x", ApplicationStatus: "applied"},
		{ID: "j-broken", SequentialID: 5, Company: "NoTitle"},
		{ID: "j-dup", SequentialID: 6, Title: "Engineer", Company: "Acme", RawText: "x", DuplicateOfID: "j-legacy", LinkedResumeIDs: []string{"r-legacy"}},
	}
	b.ScraperCache = []backup.CacheEntry{
		{InputHash: "abc", Result: json.RawMessage(`{"title":"Engineer"}`), ExpiresAt: now.Add(time.Hour)},
		{InputHash: ""},
	}

	res, err := e.migration.Import(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, Counts{Imported: 1, Errors: 1}, res.Resumes)
	assert.Equal(t, Counts{Imported: 2, Errors: 1}, res.JobDescriptions)
	assert.Equal(t, Counts{Imported: 2, Errors: 1}, res.ResumeLinks)
	assert.Equal(t, Counts{Imported: 1}, res.DuplicateRelations)
	assert.Equal(t, Counts{Imported: 1, Errors: 1}, res.ScraperCache)

	jobs, err := e.jobs.List(ctx, models.JobFilter{})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	for _, j := range jobs {
		if j.SequentialID == 6 {
			require.NotNil(t, j.DuplicateOfID)
		}
	}
}

func TestImportKeepsSequentialIDsAfterDelete(t *testing.T) {
	src := newEnv(t)
	ctx := context.Background()
	src.createJob(t, "A", "Acme")
	b := src.createJob(t, "B", "Globex")
	src.createJob(t, "C", "Initech")
	require.NoError(t, src.jobs.Delete(ctx, b.ID))

	exported, err := src.migration.Export(ctx)
	require.NoError(t, err)

	dst := newEnv(t)
	_, err = dst.migration.Import(ctx, exported)
	require.NoError(t, err)

	jobs, err := dst.jobs.List(ctx, models.JobFilter{})
	require.NoError(t, err)
	bySeq := map[int]string{}
	for _, j := range jobs {
		bySeq[j.SequentialID] = j.Title
	}
	assert.Equal(t, map[int]string{1: "A", 3: "C"}, bySeq)

	next := dst.createJob(t, "D", "Umbrella")
	assert.Equal(t, 4, next.SequentialID)
}

func TestImportReassignsTakenSequentialIDs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.createJob(t, "Existing", "Acme")

	b := backup.New(time.Now().UTC())
	b.JobDescriptions = []backup.Job{
		{ID: "j-clash", SequentialID: 1, Title: "Clash", Company: "Globex", RawText: "x"},
		{ID: "j-none", Title: "NoSeq", Company: "Initech", RawText: "x"},
		{ID: "j-free", SequentialID: 7, Title: "Free", Company: "Hooli", RawText: "x"},
	}
	res, err := e.migration.Import(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, Counts{Imported: 3}, res.JobDescriptions)

	jobs, err := e.jobs.List(ctx, models.JobFilter{})
	require.NoError(t, err)
	bySeq := map[int]string{}
	for _, j := range jobs {
		bySeq[j.SequentialID] = j.Title
	}
	assert.Equal(t, map[int]string{1: "Existing", 2: "Clash", 7: "Free", 8: "NoSeq"}, bySeq)
}

func TestClearAllRequiresConfirmation(t *testing.T) {
	e := newEnv(t)
	seed(t, e)
	ctx := context.Background()

	_, err := e.migration.ClearAll(ctx, "WRONG")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	stats, err := e.jobs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)

	res, err := e.migration.ClearAll(ctx, ClearAllConfirmation)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.JobDescriptions)
	assert.Equal(t, int64(2), res.Resumes)

	jobs, err := e.jobs.List(ctx, models.JobFilter{})
	require.NoError(t, err)
	assert.Empty(t, jobs)
	docs, err := e.resumes.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, docs)
	letters, err := e.coverLetters.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, letters)
}
