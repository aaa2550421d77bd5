package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/yoockh/applytrack/internal/events"
	"github.com/yoockh/applytrack/internal/logger"
	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/repositories"
	"github.com/yoockh/applytrack/internal/utils"
)

var validStatuses = map[models.ApplicationStatus]bool{
	models.StatusPending:      true,
	models.StatusApplied:      true,
	models.StatusInterviewing: true,
	models.StatusOffered:      true,
	models.StatusRejected:     true,
	models.StatusWithdrawn:    true,
	models.StatusDuplicate:    true,
}

func ValidStatus(s models.ApplicationStatus) bool { return validStatuses[s] }

// JobInput is the create payload. Server-managed fields have no place here.
type JobInput struct {
	Title             string          `json:"title"`
	Company           string          `json:"company"`
	Role              string          `json:"role"`
	Location          string          `json:"location"`
	WorkArrangement   string          `json:"workArrangement"`
	RawText           string          `json:"rawText"`
	ExtractedInfo     json.RawMessage `json:"extractedInfo"`
	Keywords          []string        `json:"keywords"`
	SalaryMin         *int            `json:"salaryMin"`
	SalaryMax         *int            `json:"salaryMax"`
	SalaryCurrency    string          `json:"salaryCurrency"`
	Source1Type       string          `json:"source1Type"`
	Source1Content    string          `json:"source1Content"`
	Source2Type       string          `json:"source2Type"`
	Source2Content    string          `json:"source2Content"`
	ContactName       string          `json:"contactName"`
	ContactEmail      string          `json:"contactEmail"`
	ContactPhone      string          `json:"contactPhone"`
	ApplicationStatus string          `json:"applicationStatus"`
	InterviewDates    []string        `json:"interviewDates"`
	Priority          string          `json:"priority"`
	Impact            string          `json:"impact"`
	Notes             string          `json:"notes"`
}

// JobPatch is a partial update; nil fields are left alone. Fields such as id,
// sequentialId, timestamps and duplicateOfId are not patchable.
type JobPatch struct {
	Title             *string          `json:"title"`
	Company           *string          `json:"company"`
	Role              *string          `json:"role"`
	Location          *string          `json:"location"`
	WorkArrangement   *string          `json:"workArrangement"`
	RawText           *string          `json:"rawText"`
	ExtractedInfo     *json.RawMessage `json:"extractedInfo"`
	Keywords          *[]string        `json:"keywords"`
	SalaryMin         *int             `json:"salaryMin"`
	SalaryMax         *int             `json:"salaryMax"`
	SalaryCurrency    *string          `json:"salaryCurrency"`
	Source1Type       *string          `json:"source1Type"`
	Source1Content    *string          `json:"source1Content"`
	Source2Type       *string          `json:"source2Type"`
	Source2Content    *string          `json:"source2Content"`
	ContactName       *string          `json:"contactName"`
	ContactEmail      *string          `json:"contactEmail"`
	ContactPhone      *string          `json:"contactPhone"`
	ApplicationStatus *string          `json:"applicationStatus"`
	IsArchived        *bool            `json:"isArchived"`
	InterviewDates    *[]string        `json:"interviewDates"`
	Priority          *string          `json:"priority"`
	Impact            *string          `json:"impact"`
	Notes             *string          `json:"notes"`
}

type JobService interface {
	List(ctx context.Context, f models.JobFilter) ([]models.JobView, error)
	Get(ctx context.Context, id string) (*models.JobDetail, error)
	Create(ctx context.Context, in JobInput) (*models.JobView, error)
	Update(ctx context.Context, id string, p JobPatch) (*models.JobView, error)
	Delete(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) (*models.JobView, error)
	MarkDuplicate(ctx context.Context, id, duplicateOfID string) (*models.JobView, error)
	Stats(ctx context.Context) (models.JobStats, error)
}

type jobService struct {
	jobs         repositories.JobRepository
	resumes      repositories.DocumentRepository
	coverLetters repositories.DocumentRepository
	notifier     activityNotifier
	now          func() time.Time
}

func NewJobService(
	jobs repositories.JobRepository,
	resumes, coverLetters repositories.DocumentRepository,
	pub events.Publisher,
	log *logrus.Logger,
) JobService {
	if log == nil {
		log = logger.Discard()
	}
	return &jobService{
		jobs:         jobs,
		resumes:      resumes,
		coverLetters: coverLetters,
		notifier:     activityNotifier{pub: pub, log: log},
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *jobService) List(ctx context.Context, f models.JobFilter) ([]models.JobView, error) {
	const op = "JobService.List"

	if f.Status != "" && !ValidStatus(models.ApplicationStatus(f.Status)) {
		return nil, utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("unknown status %q", f.Status), nil)
	}
	jobs, err := s.jobs.List(ctx, f)
	if err != nil {
		return nil, utils.Wrap(op, "failed to list jobs", err)
	}
	return s.views(ctx, op, jobs)
}

func (s *jobService) views(ctx context.Context, op string, jobs []models.JobDescription) ([]models.JobView, error) {
	out := make([]models.JobView, 0, len(jobs))
	if len(jobs) == 0 {
		return out, nil
	}
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}

	resumeLinks, err := s.resumes.LinksForJobs(ctx, ids)
	if err != nil {
		return nil, utils.Wrap(op, "failed to load resume links", err)
	}
	coverLinks, err := s.coverLetters.LinksForJobs(ctx, ids)
	if err != nil {
		return nil, utils.Wrap(op, "failed to load cover letter links", err)
	}
	byJobResume := groupByJob(resumeLinks)
	byJobCover := groupByJob(coverLinks)

	for _, j := range jobs {
		out = append(out, models.JobView{
			JobDescription:       j,
			LinkedResumeIDs:      nonNilIDs(byJobResume[j.ID]),
			LinkedCoverLetterIDs: nonNilIDs(byJobCover[j.ID]),
		})
	}
	return out, nil
}

func (s *jobService) view(ctx context.Context, op string, job *models.JobDescription) (*models.JobView, error) {
	vs, err := s.views(ctx, op, []models.JobDescription{*job})
	if err != nil {
		return nil, err
	}
	return &vs[0], nil
}

func (s *jobService) Get(ctx context.Context, id string) (*models.JobDetail, error) {
	const op = "JobService.Get"

	job, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	v, err := s.view(ctx, op, job)
	if err != nil {
		return nil, err
	}

	history, err := s.jobs.History(ctx, id)
	if err != nil {
		return nil, utils.Wrap(op, "failed to load status history", err)
	}
	activity, err := s.jobs.Activity(ctx, id, models.ActivityLogDetailLimit)
	if err != nil {
		return nil, utils.Wrap(op, "failed to load activity log", err)
	}
	resumes, err := s.resumes.Summaries(ctx, v.LinkedResumeIDs)
	if err != nil {
		return nil, utils.Wrap(op, "failed to load linked resumes", err)
	}
	covers, err := s.coverLetters.Summaries(ctx, v.LinkedCoverLetterIDs)
	if err != nil {
		return nil, utils.Wrap(op, "failed to load linked cover letters", err)
	}

	return &models.JobDetail{
		JobView:            *v,
		StatusHistory:      history,
		ActivityLog:        activity,
		LinkedResumes:      nonNilSummaries(resumes),
		LinkedCoverLetters: nonNilSummaries(covers),
	}, nil
}

func (s *jobService) load(ctx context.Context, op, id string) (*models.JobDescription, error) {
	if strings.TrimSpace(id) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, utils.Wrap(op, "job", err)
	}
	return job, nil
}

func (s *jobService) Create(ctx context.Context, in JobInput) (*models.JobView, error) {
	const op = "JobService.Create"

	in.Title = strings.TrimSpace(in.Title)
	in.Company = strings.TrimSpace(in.Company)
	if in.Title == "" || in.Company == "" || strings.TrimSpace(in.RawText) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "title, company and rawText are required", nil)
	}
	status := models.ApplicationStatus(in.ApplicationStatus)
	if status == "" {
		status = models.StatusPending
	}
	if !ValidStatus(status) {
		return nil, utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("unknown status %q", in.ApplicationStatus), nil)
	}

	now := s.now()
	job := &models.JobDescription{
		ID:                uuid.NewString(),
		Title:             in.Title,
		Company:           in.Company,
		Role:              in.Role,
		Location:          in.Location,
		WorkArrangement:   in.WorkArrangement,
		RawText:           in.RawText,
		Keywords:          pq.StringArray(nonNilIDs(in.Keywords)),
		SalaryMin:         in.SalaryMin,
		SalaryMax:         in.SalaryMax,
		SalaryCurrency:    in.SalaryCurrency,
		Source1Type:       in.Source1Type,
		Source1Content:    in.Source1Content,
		Source2Type:       in.Source2Type,
		Source2Content:    in.Source2Content,
		ContactName:       in.ContactName,
		ContactEmail:      in.ContactEmail,
		ContactPhone:      in.ContactPhone,
		ApplicationStatus: status,
		LastActivityDate:  &now,
		InterviewDates:    pq.StringArray(nonNilIDs(in.InterviewDates)),
		Priority:          in.Priority,
		Impact:            in.Impact,
		Notes:             in.Notes,
		AIParseStatus:     models.ParseUnparsed,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if len(in.ExtractedInfo) > 0 && string(in.ExtractedInfo) != "null" {
		job.ExtractedInfo = datatypes.JSON(in.ExtractedInfo)
		job.AIParseStatus = models.ParseParsed
	}

	history := newHistory(job.ID, status, "Job created", now)
	activity := newActivity(job.ID, models.ActivityJobCreated,
		fmt.Sprintf("Created job %s at %s", job.Title, job.Company), nil, string(status), now)

	if err := s.jobs.Create(ctx, job, history, activity); err != nil {
		return nil, utils.Wrap(op, "failed to create job", err)
	}
	s.notifier.notify(ctx, job, activity)
	return s.view(ctx, op, job)
}

func (s *jobService) Update(ctx context.Context, id string, p JobPatch) (*models.JobView, error) {
	const op = "JobService.Update"

	job, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	prevStatus := job.ApplicationStatus

	if err := applyPatch(job, p); err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, err.Error(), nil)
	}

	now := s.now()
	job.LastActivityDate = &now

	var history *models.StatusHistory
	var activity *models.ActivityLog
	if job.ApplicationStatus != prevStatus {
		history = newHistory(job.ID, job.ApplicationStatus,
			fmt.Sprintf("Status changed from %s to %s", prevStatus, job.ApplicationStatus), now)
		activity = newActivity(job.ID, models.ActivityStatusChange,
			fmt.Sprintf("Status changed from %s to %s", prevStatus, job.ApplicationStatus),
			string(prevStatus), string(job.ApplicationStatus), now)
	}

	if err := s.jobs.Update(ctx, job, history, activity); err != nil {
		return nil, utils.Wrap(op, "failed to update job", err)
	}
	s.notifier.notify(ctx, job, activity)
	return s.view(ctx, op, job)
}

func applyPatch(job *models.JobDescription, p JobPatch) error {
	setRequired := func(dst *string, v *string, field string) error {
		if v == nil {
			return nil
		}
		if strings.TrimSpace(*v) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		*dst = *v
		return nil
	}
	if err := setRequired(&job.Title, p.Title, "title"); err != nil {
		return err
	}
	if err := setRequired(&job.Company, p.Company, "company"); err != nil {
		return err
	}
	if err := setRequired(&job.RawText, p.RawText, "rawText"); err != nil {
		return err
	}
	for _, f := range []struct {
		dst *string
		v   *string
	}{
		{&job.Role, p.Role},
		{&job.Location, p.Location},
		{&job.WorkArrangement, p.WorkArrangement},
		{&job.SalaryCurrency, p.SalaryCurrency},
		{&job.Source1Type, p.Source1Type},
		{&job.Source1Content, p.Source1Content},
		{&job.Source2Type, p.Source2Type},
		{&job.Source2Content, p.Source2Content},
		{&job.ContactName, p.ContactName},
		{&job.ContactEmail, p.ContactEmail},
		{&job.ContactPhone, p.ContactPhone},
		{&job.Priority, p.Priority},
		{&job.Impact, p.Impact},
		{&job.Notes, p.Notes},
	} {
		if f.v != nil {
			*f.dst = *f.v
		}
	}

	if p.ApplicationStatus != nil {
		st := models.ApplicationStatus(*p.ApplicationStatus)
		if !ValidStatus(st) {
			return fmt.Errorf("unknown status %q", *p.ApplicationStatus)
		}
		job.ApplicationStatus = st
	}
	if p.IsArchived != nil {
		job.IsArchived = *p.IsArchived
	}
	if p.Keywords != nil {
		job.Keywords = pq.StringArray(nonNilIDs(*p.Keywords))
	}
	if p.InterviewDates != nil {
		job.InterviewDates = pq.StringArray(nonNilIDs(*p.InterviewDates))
	}
	if p.SalaryMin != nil {
		job.SalaryMin = p.SalaryMin
	}
	if p.SalaryMax != nil {
		job.SalaryMax = p.SalaryMax
	}
	if p.ExtractedInfo != nil {
		if len(*p.ExtractedInfo) == 0 || string(*p.ExtractedInfo) == "null" {
			job.ExtractedInfo = nil
		} else {
			job.ExtractedInfo = datatypes.JSON(*p.ExtractedInfo)
		}
	}
	return nil
}

func (s *jobService) Delete(ctx context.Context, id string) error {
	const op = "JobService.Delete"

	if strings.TrimSpace(id) == "" {
		return utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	if err := s.jobs.Delete(ctx, id); err != nil {
		return utils.Wrap(op, "failed to delete job", err)
	}
	return nil
}

func (s *jobService) Archive(ctx context.Context, id string) (*models.JobView, error) {
	const op = "JobService.Archive"

	job, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	job.LastActivityDate = &now
	var activity *models.ActivityLog
	if !job.IsArchived {
		job.IsArchived = true
		activity = newActivity(job.ID, models.ActivityJobArchived, "Job archived", false, true, now)
	}

	if err := s.jobs.Update(ctx, job, nil, activity); err != nil {
		return nil, utils.Wrap(op, "failed to archive job", err)
	}
	s.notifier.notify(ctx, job, activity)
	return s.view(ctx, op, job)
}

func (s *jobService) MarkDuplicate(ctx context.Context, id, duplicateOfID string) (*models.JobView, error) {
	const op = "JobService.MarkDuplicate"

	if id == duplicateOfID {
		return nil, utils.E(utils.CodeInvalidArgument, op, "a job cannot be a duplicate of itself", nil)
	}
	job, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	target, err := s.load(ctx, op, duplicateOfID)
	if err != nil {
		return nil, err
	}
	if err := s.checkChain(ctx, op, job.ID, target); err != nil {
		return nil, err
	}

	now := s.now()
	prevStatus := job.ApplicationStatus
	job.DuplicateOfID = &target.ID
	job.ApplicationStatus = models.StatusDuplicate
	job.LastActivityDate = &now

	var history *models.StatusHistory
	var statusActivity *models.ActivityLog
	if prevStatus != models.StatusDuplicate {
		history = newHistory(job.ID, models.StatusDuplicate,
			fmt.Sprintf("Marked as duplicate of #%d", target.SequentialID), now)
		statusActivity = newActivity(job.ID, models.ActivityStatusChange,
			fmt.Sprintf("Status changed from %s to %s", prevStatus, models.StatusDuplicate),
			string(prevStatus), string(models.StatusDuplicate), now)
	}
	if err := s.jobs.Update(ctx, job, history, statusActivity); err != nil {
		return nil, utils.Wrap(op, "failed to mark duplicate", err)
	}

	marked := newActivity(job.ID, models.ActivityMarkedDuplicate,
		fmt.Sprintf("Marked as duplicate of #%d %s at %s", target.SequentialID, target.Title, target.Company),
		nil, target.ID, now)
	if err := s.jobs.AppendActivity(ctx, marked); err != nil {
		return nil, utils.Wrap(op, "failed to log duplicate", err)
	}
	s.notifier.notify(ctx, job, statusActivity, marked)
	return s.view(ctx, op, job)
}

// checkChain walks duplicate-of pointers from target and rejects the link when
// the walk reaches jobID.
func (s *jobService) checkChain(ctx context.Context, op, jobID string, target *models.JobDescription) error {
	seen := map[string]bool{target.ID: true}
	cur := target
	for cur.DuplicateOfID != nil {
		next := *cur.DuplicateOfID
		if next == jobID {
			return utils.E(utils.CodeInvalidArgument, op, "duplicate chain would form a cycle", nil)
		}
		if seen[next] {
			return nil
		}
		seen[next] = true

		j, err := s.jobs.GetByID(ctx, next)
		if err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				return nil
			}
			return utils.Wrap(op, "failed to walk duplicate chain", err)
		}
		cur = j
	}
	return nil
}

func (s *jobService) Stats(ctx context.Context) (models.JobStats, error) {
	const op = "JobService.Stats"

	st, err := s.jobs.Stats(ctx)
	if err != nil {
		return models.JobStats{}, utils.Wrap(op, "failed to compute stats", err)
	}
	return st, nil
}

func groupByJob(links []models.DocumentLink) map[string][]string {
	out := make(map[string][]string, len(links))
	for _, l := range links {
		out[l.JobDescriptionID] = append(out[l.JobDescriptionID], l.DocumentID)
	}
	return out
}

func groupByDocument(links []models.DocumentLink) map[string][]string {
	out := make(map[string][]string, len(links))
	for _, l := range links {
		out[l.DocumentID] = append(out[l.DocumentID], l.JobDescriptionID)
	}
	return out
}

func nonNilIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func nonNilSummaries(s []models.DocumentSummary) []models.DocumentSummary {
	if s == nil {
		return []models.DocumentSummary{}
	}
	return s
}
