package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/utils"
)

func TestDocumentLinkRejectsDuplicatePair(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	job := e.createJob(t, "Engineer", "Acme")
	resume := e.createResume(t, "Backend CV")

	_, err := e.resumes.Link(ctx, resume.ID, job.ID)
	require.NoError(t, err)

	_, err = e.resumes.Link(ctx, resume.ID, job.ID)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeAlreadyExists))

	_, _, links := e.store.ChildCounts(job.ID)
	assert.Equal(t, 1, links)

	view, err := e.resumes.Get(ctx, resume.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{job.ID}, view.LinkedJobIDs)

	jobs, err := e.resumes.Jobs(ctx, resume.ID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Engineer", jobs[0].Title)

	listed, err := e.jobs.List(ctx, models.JobFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{resume.ID}, listed[0].LinkedResumeIDs)
}

func TestDocumentLinkMissingEntities(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	job := e.createJob(t, "Engineer", "Acme")
	resume := e.createResume(t, "CV")

	_, err := e.resumes.Link(ctx, "missing", job.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
	_, err = e.resumes.Link(ctx, resume.ID, "missing")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestDocumentUnlinkIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	job := e.createJob(t, "Engineer", "Acme")
	resume := e.createResume(t, "CV")

	_, err := e.resumes.Link(ctx, resume.ID, job.ID)
	require.NoError(t, err)
	require.NoError(t, e.resumes.Unlink(ctx, resume.ID, job.ID))
	require.NoError(t, e.resumes.Unlink(ctx, resume.ID, job.ID))

	_, _, links := e.store.ChildCounts(job.ID)
	assert.Zero(t, links)
}

func TestDocumentDeleteCleansLinks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	job := e.createJob(t, "Engineer", "Acme")
	resume := e.createResume(t, "CV")
	_, err := e.resumes.Link(ctx, resume.ID, job.ID)
	require.NoError(t, err)

	require.NoError(t, e.resumes.Delete(ctx, resume.ID))

	_, _, links := e.store.ChildCounts(job.ID)
	assert.Zero(t, links)
	_, err = e.resumes.Get(ctx, resume.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestDocumentUpdate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	resume := e.createResume(t, "CV")

	out, err := e.resumes.Update(ctx, resume.ID, DocumentPatch{TargetCompany: strPtr("Acme"), Name: strPtr("CV v2")})
	require.NoError(t, err)
	assert.Equal(t, "Acme", out.TargetCompany)
	assert.Equal(t, "CV v2", out.Name)

	_, err = e.resumes.Update(ctx, resume.ID, DocumentPatch{Name: strPtr("")})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestDocumentUploadText(t *testing.T) {
	e := newEnv(t)
	body := []byte("Jane Doe\nGo developer")

	out, err := e.coverLetters.Upload(context.Background(), UploadInput{FileName: "letter.txt", Body: bytes.NewReader(body)})
	require.NoError(t, err)
	assert.Equal(t, "letter", out.Name)
	assert.Equal(t, "text/plain", out.FileType)
	assert.Equal(t, len(body), out.FileSize)
	assert.Equal(t, string(body), out.TextContent)
	assert.Equal(t, base64.StdEncoding.EncodeToString(body), out.FileContent)
}

func TestDocumentUploadRejects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.resumes.Upload(ctx, UploadInput{FileName: "cv.exe", Body: bytes.NewReader([]byte("MZ..."))})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	// plain text pretending to be a pdf
	_, err = e.resumes.Upload(ctx, UploadInput{FileName: "cv.pdf", Body: bytes.NewReader([]byte("hello"))})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	big := bytes.Repeat([]byte("a"), MaxUploadBytes+1)
	_, err = e.resumes.Upload(ctx, UploadInput{FileName: "cv.txt", Body: bytes.NewReader(big)})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	out, err := e.resumes.Upload(ctx, UploadInput{Name: "Real CV", FileName: "cv.pdf", Body: bytes.NewReader([]byte("%PDF-1.4\n%...."))})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", out.FileType)
	assert.Empty(t, out.TextContent)
}
