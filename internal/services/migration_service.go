package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yoockh/applytrack/internal/backup"
	"github.com/yoockh/applytrack/internal/logger"
	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/repositories"
	"github.com/yoockh/applytrack/internal/utils"
)

// ClearAllConfirmation must be sent verbatim to wipe every table.
const ClearAllConfirmation = "DELETE_ALL_DATA"

type Counts struct {
	Imported int `json:"imported"`
	Errors   int `json:"errors"`
}

type ImportResult struct {
	Resumes            Counts `json:"resumes"`
	CoverLetters       Counts `json:"coverLetters"`
	JobDescriptions    Counts `json:"jobDescriptions"`
	StatusHistory      Counts `json:"statusHistory"`
	ActivityLogs       Counts `json:"activityLogs"`
	ResumeLinks        Counts `json:"resumeLinks"`
	CoverLetterLinks   Counts `json:"coverLetterLinks"`
	DuplicateRelations Counts `json:"duplicateRelations"`
	ScraperCache       Counts `json:"scraperCache"`
}

type ClearResult struct {
	JobDescriptions int64 `json:"jobDescriptions"`
	Resumes         int64 `json:"resumes"`
	CoverLetters    int64 `json:"coverLetters"`
	ScraperCache    int64 `json:"scraperCache"`
}

type MigrationService interface {
	Import(ctx context.Context, b *backup.Backup) (*ImportResult, error)
	Export(ctx context.Context) (*backup.Backup, error)
	ClearAll(ctx context.Context, confirm string) (*ClearResult, error)
}

type migrationService struct {
	jobs         repositories.JobRepository
	resumes      repositories.DocumentRepository
	coverLetters repositories.DocumentRepository
	cache        repositories.ScraperCacheRepository
	log          *logrus.Logger
}

func NewMigrationService(
	jobs repositories.JobRepository,
	resumes, coverLetters repositories.DocumentRepository,
	cache repositories.ScraperCacheRepository,
	log *logrus.Logger,
) MigrationService {
	if log == nil {
		log = logger.Discard()
	}
	return &migrationService{jobs: jobs, resumes: resumes, coverLetters: coverLetters, cache: cache, log: log}
}

// importID keeps a well-formed incoming id and replaces anything else.
func importID(id string) string {
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	return uuid.NewString()
}

// Import inserts every item on its own. A failing item bumps its category's
// error counter and the batch carries on; nothing is rolled back.
func (s *migrationService) Import(ctx context.Context, b *backup.Backup) (*ImportResult, error) {
	const op = "MigrationService.Import"

	if b == nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "backup payload is required", nil)
	}
	res := &ImportResult{}
	l := s.log.WithField("op", op)

	// old id -> stored id, per entity family
	resumeIDs := s.importDocuments(ctx, s.resumes, b.Resumes, &res.Resumes, l)
	coverIDs := s.importDocuments(ctx, s.coverLetters, b.CoverLetters, &res.CoverLetters, l)

	// jobs keep their sequential id when it is free; those without one go last
	jobs := append([]backup.Job(nil), b.JobDescriptions...)
	sort.SliceStable(jobs, func(i, j int) bool {
		x, y := jobs[i].SequentialID, jobs[j].SequentialID
		if (x > 0) != (y > 0) {
			return x > 0
		}
		return x < y
	})

	jobIDs := map[string]string{}
	resumeSide := map[string][]string{}
	coverSide := map[string][]string{}
	for _, bj := range jobs {
		rec := backup.FlattenJob(bj)
		job := rec.Job
		job.ID = importID(bj.ID)
		job.DuplicateOfID = nil
		if !ValidStatus(job.ApplicationStatus) {
			job.ApplicationStatus = models.StatusPending
		}
		if job.Title == "" || job.Company == "" {
			res.JobDescriptions.Errors++
			l.WithField("job_id", bj.ID).Warn("import: job without title or company skipped")
			continue
		}
		if job.CreatedAt.IsZero() {
			job.CreatedAt = time.Now().UTC()
		}
		if err := s.jobs.Restore(ctx, &job); err != nil {
			res.JobDescriptions.Errors++
			l.WithError(err).WithField("job_id", bj.ID).Warn("import: job failed")
			continue
		}
		res.JobDescriptions.Imported++
		jobIDs[bj.ID] = job.ID
		resumeSide[bj.ID] = rec.LinkedResumeIDs
		coverSide[bj.ID] = rec.LinkedCoverLetterIDs

		for _, h := range rec.History {
			h.ID = uuid.NewString()
			h.JobDescriptionID = job.ID
			if err := s.jobs.AppendHistory(ctx, &h); err != nil {
				res.StatusHistory.Errors++
				l.WithError(err).WithField("job_id", job.ID).Warn("import: status history row failed")
				continue
			}
			res.StatusHistory.Imported++
		}
		for _, a := range rec.Activity {
			a.ID = uuid.NewString()
			a.JobDescriptionID = job.ID
			if a.CreatedAt.IsZero() {
				a.CreatedAt = job.CreatedAt
			}
			if err := s.jobs.AppendActivity(ctx, &a); err != nil {
				res.ActivityLogs.Errors++
				l.WithError(err).WithField("job_id", job.ID).Warn("import: activity row failed")
				continue
			}
			res.ActivityLogs.Imported++
		}
	}

	// duplicate-of pointers need every job in place first
	for _, bj := range jobs {
		if bj.DuplicateOfID == "" {
			continue
		}
		src, ok1 := jobIDs[bj.ID]
		dst, ok2 := jobIDs[bj.DuplicateOfID]
		if !ok1 || !ok2 || src == dst {
			res.DuplicateRelations.Errors++
			continue
		}
		job, err := s.jobs.GetByID(ctx, src)
		if err == nil {
			job.DuplicateOfID = &dst
			err = s.jobs.Update(ctx, job, nil, nil)
		}
		if err != nil {
			res.DuplicateRelations.Errors++
			l.WithError(err).WithField("job_id", src).Warn("import: duplicate relation failed")
			continue
		}
		res.DuplicateRelations.Imported++
	}

	// links are declared on both sides; collect unique pairs first
	resumePairs := linkPairs(resumeSide, b.Resumes)
	coverPairs := linkPairs(coverSide, b.CoverLetters)
	s.importLinks(ctx, s.resumes, resumePairs, jobIDs, resumeIDs, &res.ResumeLinks, l)
	s.importLinks(ctx, s.coverLetters, coverPairs, jobIDs, coverIDs, &res.CoverLetterLinks, l)

	for _, c := range b.ScraperCache {
		row := backup.FlattenCacheEntry(c)
		row.ID = uuid.NewString()
		if row.InputHash == "" || len(row.Result) == 0 {
			res.ScraperCache.Errors++
			continue
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now().UTC()
		}
		if err := s.cache.Upsert(ctx, &row); err != nil {
			res.ScraperCache.Errors++
			l.WithError(err).WithField("input_hash", row.InputHash).Warn("import: cache row failed")
			continue
		}
		res.ScraperCache.Imported++
	}

	l.WithFields(logrus.Fields{
		"jobs":          res.JobDescriptions.Imported,
		"job_errors":    res.JobDescriptions.Errors,
		"resumes":       res.Resumes.Imported,
		"cover_letters": res.CoverLetters.Imported,
	}).Info("import finished")
	return res, nil
}

func (s *migrationService) importDocuments(ctx context.Context, repo repositories.DocumentRepository, docs []backup.Document, c *Counts, l *logrus.Entry) map[string]string {
	ids := map[string]string{}
	for _, bd := range docs {
		d := backup.FlattenDocument(bd)
		d.ID = importID(bd.ID)
		if d.Name == "" {
			d.Name = d.FileName
		}
		if d.Name == "" {
			c.Errors++
			l.WithField("document_id", bd.ID).Warn("import: document without name skipped")
			continue
		}
		if err := repo.Create(ctx, &d); err != nil {
			c.Errors++
			l.WithError(err).WithFields(logrus.Fields{"kind": repo.Kind().Name, "document_id": bd.ID}).Warn("import: document failed")
			continue
		}
		c.Imported++
		ids[bd.ID] = d.ID
	}
	return ids
}

type pair struct{ job, doc string }

// linkPairs merges job-side and document-side link declarations, keyed by the
// ids found in the backup.
func linkPairs(jobSide map[string][]string, docs []backup.Document) []pair {
	seen := map[pair]bool{}
	var out []pair
	add := func(p pair) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for jobID, docIDs := range jobSide {
		for _, docID := range docIDs {
			add(pair{job: jobID, doc: docID})
		}
	}
	for _, d := range docs {
		for _, jobID := range d.LinkedJobIDs {
			add(pair{job: jobID, doc: d.ID})
		}
	}
	return out
}

func (s *migrationService) importLinks(ctx context.Context, repo repositories.DocumentRepository, pairs []pair, jobIDs, docIDs map[string]string, c *Counts, l *logrus.Entry) {
	for _, p := range pairs {
		jobID, ok1 := jobIDs[p.job]
		docID, ok2 := docIDs[p.doc]
		if !ok1 || !ok2 {
			c.Errors++
			continue
		}
		link := &models.DocumentLink{
			ID:               uuid.NewString(),
			JobDescriptionID: jobID,
			DocumentID:       docID,
			CreatedAt:        time.Now().UTC(),
		}
		if err := repo.Link(ctx, link); err != nil {
			c.Errors++
			l.WithError(err).WithFields(logrus.Fields{"kind": repo.Kind().Name, "job_id": jobID}).Warn("import: link failed")
			continue
		}
		c.Imported++
	}
}

func (s *migrationService) Export(ctx context.Context) (*backup.Backup, error) {
	const op = "MigrationService.Export"

	out := backup.New(time.Now())
	var jobs []models.JobDescription
	var resumeLinks, coverLinks []models.DocumentLink

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, links, err := s.exportDocuments(gctx, s.resumes)
		out.Resumes, resumeLinks = docs, links
		return err
	})
	g.Go(func() error {
		docs, links, err := s.exportDocuments(gctx, s.coverLetters)
		out.CoverLetters, coverLinks = docs, links
		return err
	})
	g.Go(func() error {
		var err error
		jobs, err = s.jobs.List(gctx, models.JobFilter{})
		return err
	})
	g.Go(func() error {
		rows, err := s.cache.List(gctx)
		if err != nil {
			return err
		}
		for _, r := range rows {
			out.ScraperCache = append(out.ScraperCache, backup.NestCacheEntry(r))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, utils.Wrap(op, "failed to export data", err)
	}

	byJobResume := groupByJob(resumeLinks)
	byJobCover := groupByJob(coverLinks)
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].SequentialID < jobs[j].SequentialID })
	for _, j := range jobs {
		history, err := s.jobs.History(ctx, j.ID)
		if err != nil {
			return nil, utils.Wrap(op, "failed to export status history", err)
		}
		activity, err := s.jobs.Activity(ctx, j.ID, 0)
		if err != nil {
			return nil, utils.Wrap(op, "failed to export activity log", err)
		}
		out.JobDescriptions = append(out.JobDescriptions, backup.NestJob(backup.JobRecord{
			Job:                  j,
			History:              history,
			Activity:             activity,
			LinkedResumeIDs:      byJobResume[j.ID],
			LinkedCoverLetterIDs: byJobCover[j.ID],
		}))
	}
	return out, nil
}

// exportDocuments reloads each document so the backup carries file content,
// which List leaves out.
func (s *migrationService) exportDocuments(ctx context.Context, repo repositories.DocumentRepository) ([]backup.Document, []models.DocumentLink, error) {
	docs, err := repo.List(ctx, "")
	if err != nil {
		return nil, nil, err
	}
	links, err := repo.LinksForJobs(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	byDoc := groupByDocument(links)

	out := make([]backup.Document, 0, len(docs))
	for _, d := range docs {
		full, err := repo.GetByID(ctx, d.ID)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, backup.NestDocument(*full, byDoc[d.ID]))
	}
	return out, links, nil
}

func (s *migrationService) ClearAll(ctx context.Context, confirm string) (*ClearResult, error) {
	const op = "MigrationService.ClearAll"

	if confirm != ClearAllConfirmation {
		return nil, utils.E(utils.CodeInvalidArgument, op, "confirmation must be "+ClearAllConfirmation, nil)
	}

	res := &ClearResult{}
	var err error
	if res.JobDescriptions, err = s.jobs.DeleteAll(ctx); err != nil {
		return nil, utils.Wrap(op, "failed to delete jobs", err)
	}
	if res.Resumes, err = s.resumes.DeleteAll(ctx); err != nil {
		return nil, utils.Wrap(op, "failed to delete resumes", err)
	}
	if res.CoverLetters, err = s.coverLetters.DeleteAll(ctx); err != nil {
		return nil, utils.Wrap(op, "failed to delete cover letters", err)
	}
	if res.ScraperCache, err = s.cache.DeleteAll(ctx); err != nil {
		return nil, utils.Wrap(op, "failed to delete cache", err)
	}
	s.log.WithFields(logrus.Fields{
		"jobs":          res.JobDescriptions,
		"resumes":       res.Resumes,
		"cover_letters": res.CoverLetters,
		"scraper_cache": res.ScraperCache,
	}).Warn("all data cleared")
	return res, nil
}
