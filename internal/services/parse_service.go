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

	"github.com/yoockh/applytrack/internal/cache"
	"github.com/yoockh/applytrack/internal/events"
	"github.com/yoockh/applytrack/internal/extract"
	"github.com/yoockh/applytrack/internal/hashutil"
	"github.com/yoockh/applytrack/internal/logger"
	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/providers/llm"
	"github.com/yoockh/applytrack/internal/repositories"
	"github.com/yoockh/applytrack/internal/textutil"
	"github.com/yoockh/applytrack/internal/utils"
)

type ParseErrorKind string

const (
	KindAuth         ParseErrorKind = "auth"
	KindRateLimit    ParseErrorKind = "rate_limit"
	KindUpstream     ParseErrorKind = "upstream"
	KindNetwork      ParseErrorKind = "network"
	KindInvalidJSON  ParseErrorKind = "invalid_json"
	KindMissingField ParseErrorKind = "missing_field"
	KindInvalidInput ParseErrorKind = "invalid_input"
	KindUnavailable  ParseErrorKind = "unavailable"
)

type ParseError struct {
	Kind    ParseErrorKind `json:"kind"`
	Message string         `json:"message"`
}

// ParseResult never carries a Go error: every failure is reported in Error.
type ParseResult struct {
	Success bool                  `json:"success"`
	Data    *extract.ExtractedJob `json:"data,omitempty"`
	Error   *ParseError           `json:"error,omitempty"`
	Cached  bool                  `json:"cached"`
}

func failure(kind ParseErrorKind, msg string) ParseResult {
	return ParseResult{Error: &ParseError{Kind: kind, Message: msg}}
}

type ParseConfig struct {
	CacheTTL   time.Duration // in-process or redis layer
	PersistTTL time.Duration // scraper_cache rows
	// StaleAfter is how long a job may sit in parsing before another
	// BeginJob takes it over. Keep it above the worker job timeout.
	StaleAfter time.Duration
}

// resultWriteTimeout bounds the final status write, which runs detached from
// the caller's context so a cancelled parse still leaves parsed or failed.
const resultWriteTimeout = 10 * time.Second

type ParseService interface {
	// Available reports whether a completion provider is configured.
	Available() bool
	Parse(ctx context.Context, rawText, extraContext string) ParseResult

	// BeginJob moves a stored job into the parsing state.
	BeginJob(ctx context.Context, jobID string) (*models.JobDescription, error)
	// RunJob parses a job's raw text and records parsed or failed.
	RunJob(ctx context.Context, jobID string) (*models.JobDescription, ParseResult, error)
	// ParseJob is BeginJob followed by RunJob.
	ParseJob(ctx context.Context, jobID string) (*models.JobDescription, ParseResult, error)
}

type parseService struct {
	provider  llm.Provider
	cache     cache.Cache
	persisted repositories.ScraperCacheRepository
	jobs      repositories.JobRepository
	notifier  activityNotifier
	log       *logrus.Logger
	cfg       ParseConfig
	now       func() time.Time
}

func NewParseService(
	provider llm.Provider,
	c cache.Cache,
	persisted repositories.ScraperCacheRepository,
	jobs repositories.JobRepository,
	pub events.Publisher,
	log *logrus.Logger,
	cfg ParseConfig,
) ParseService {
	if log == nil {
		log = logger.Discard()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.PersistTTL <= 0 {
		cfg.PersistTTL = DefaultScraperCacheTTL
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 3 * time.Minute
	}
	return &parseService{
		provider:  provider,
		cache:     c,
		persisted: persisted,
		jobs:      jobs,
		notifier:  activityNotifier{pub: pub, log: log},
		log:       log,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *parseService) Available() bool { return s.provider != nil }

func (s *parseService) Parse(ctx context.Context, rawText, extraContext string) ParseResult {
	text := strings.TrimSpace(textutil.PlainText(rawText))
	if text == "" {
		return failure(KindInvalidInput, "job description text is empty")
	}
	key := parseKeyPrefix + hashutil.Key(text, extraContext)
	l := s.log.WithField("cache_key", key)

	if data, ok := s.lookup(ctx, key, l); ok {
		return ParseResult{Success: true, Data: data, Cached: true}
	}
	if s.provider == nil {
		return failure(KindUnavailable, "AI parsing is not configured")
	}

	out, err := s.provider.Complete(ctx, extract.BuildPrompt(text, extraContext))
	if err != nil {
		kind := providerKind(err)
		l.WithError(err).WithFields(logrus.Fields{"provider": s.provider.Name(), "kind": kind}).Warn("completion failed")
		return failure(kind, err.Error())
	}

	data, err := extract.Parse(out)
	if err != nil {
		kind := KindInvalidJSON
		if errors.Is(err, extract.ErrMissingField) {
			kind = KindMissingField
		}
		l.WithError(err).WithField("kind", kind).Warn("model output rejected")
		return failure(kind, err.Error())
	}

	s.remember(ctx, key, text, data, l)
	return ParseResult{Success: true, Data: data}
}

// lookup consults the short-lived cache first, then the persisted table. A
// persisted hit warms the short-lived layer.
func (s *parseService) lookup(ctx context.Context, key string, l *logrus.Entry) (*extract.ExtractedJob, bool) {
	if s.cache != nil {
		var data extract.ExtractedJob
		hit, err := s.cache.GetJSON(ctx, key, &data)
		if err != nil {
			l.WithError(err).Warn("parse cache read failed")
		} else if hit {
			return &data, true
		}
	}
	if s.persisted == nil {
		return nil, false
	}

	row, err := s.persisted.GetByHash(ctx, key)
	if err != nil {
		if !errors.Is(err, utils.ErrNotFound) {
			l.WithError(err).Warn("scraper cache read failed")
		}
		return nil, false
	}
	if row.Expired(s.now()) {
		return nil, false
	}
	var data extract.ExtractedJob
	if err := json.Unmarshal(row.Result, &data); err != nil || data.Title == "" {
		return nil, false
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, data, s.cfg.CacheTTL); err != nil {
			l.WithError(err).Warn("parse cache write failed")
		}
	}
	return &data, true
}

func (s *parseService) remember(ctx context.Context, key, text string, data *extract.ExtractedJob, l *logrus.Entry) {
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, data, s.cfg.CacheTTL); err != nil {
			l.WithError(err).Warn("parse cache write failed")
		}
	}
	if s.persisted == nil {
		return
	}
	b, err := json.Marshal(data)
	if err != nil {
		return
	}
	now := s.now()
	row := &models.ScraperCache{
		ID:           uuid.NewString(),
		InputHash:    key,
		InputPreview: preview(text),
		Result:       datatypes.JSON(b),
		ExpiresAt:    now.Add(s.cfg.PersistTTL),
		CreatedAt:    now,
	}
	if err := s.persisted.Upsert(ctx, row); err != nil {
		l.WithError(err).Warn("scraper cache write failed")
	}
}

func providerKind(err error) ParseErrorKind {
	switch {
	case errors.Is(err, llm.ErrAuth):
		return KindAuth
	case errors.Is(err, llm.ErrRateLimited):
		return KindRateLimit
	case errors.Is(err, llm.ErrNetwork), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindNetwork
	default:
		return KindUpstream
	}
}

func (s *parseService) BeginJob(ctx context.Context, jobID string) (*models.JobDescription, error) {
	const op = "ParseService.BeginJob"

	if !s.Available() {
		return nil, utils.E(utils.CodeUnavailable, op, "AI parsing is not configured", nil)
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, utils.Wrap(op, "job", err)
	}
	if job.AIParseStatus == models.ParseParsing {
		if s.now().Sub(job.UpdatedAt) < s.cfg.StaleAfter {
			return nil, utils.E(utils.CodeConflict, op, "job is already being parsed", nil)
		}
		s.log.WithFields(logrus.Fields{"job_id": job.ID, "since": job.UpdatedAt}).Warn("taking over stale parse")
	}

	job.AIParseStatus = models.ParseParsing
	job.AIParseError = ""
	if err := s.jobs.Update(ctx, job, nil, nil); err != nil {
		return nil, utils.Wrap(op, "failed to mark job as parsing", err)
	}
	return job, nil
}

func (s *parseService) RunJob(ctx context.Context, jobID string) (*models.JobDescription, ParseResult, error) {
	const op = "ParseService.RunJob"

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, ParseResult{}, utils.Wrap(op, "job", err)
	}

	res := s.Parse(ctx, job.RawText, "")

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resultWriteTimeout)
	defer cancel()

	if !res.Success {
		job.AIParseStatus = models.ParseFailed
		job.AIParseError = fmt.Sprintf("%s: %s", res.Error.Kind, res.Error.Message)
		if err := s.jobs.Update(wctx, job, nil, nil); err != nil {
			return nil, res, utils.Wrap(op, "failed to record parse failure", err)
		}
		return job, res, nil
	}

	now := s.now()
	mergeExtracted(job, res.Data)
	job.AIParseStatus = models.ParseParsed
	job.AIParseError = ""
	job.LastActivityDate = &now

	activity := newActivity(job.ID, models.ActivityAIParsed, "Job details extracted by AI", nil, res.Data, now)
	if err := s.jobs.Update(wctx, job, nil, activity); err != nil {
		return nil, res, utils.Wrap(op, "failed to store parse result", err)
	}
	s.notifier.notify(wctx, job, activity)
	return job, res, nil
}

func (s *parseService) ParseJob(ctx context.Context, jobID string) (*models.JobDescription, ParseResult, error) {
	if _, err := s.BeginJob(ctx, jobID); err != nil {
		return nil, ParseResult{}, err
	}
	return s.RunJob(ctx, jobID)
}

// mergeExtracted fills only empty job fields, stores the full extraction and
// unions skills into keywords.
func mergeExtracted(job *models.JobDescription, data *extract.ExtractedJob) {
	fill := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" && v != "" {
			*dst = v
		}
	}
	fill(&job.Role, data.Role)
	fill(&job.Location, data.Location)
	fill(&job.WorkArrangement, data.WorkArrangement)
	fill(&job.SalaryCurrency, data.SalaryCurrency)
	fill(&job.ContactName, data.ContactName)
	fill(&job.ContactEmail, data.ContactEmail)
	if job.SalaryMin == nil {
		job.SalaryMin = data.SalaryMin
	}
	if job.SalaryMax == nil {
		job.SalaryMax = data.SalaryMax
	}

	seen := map[string]bool{}
	merged := make([]string, 0, len(job.Keywords)+len(data.Skills))
	for _, k := range append(append([]string{}, job.Keywords...), data.Skills...) {
		lk := strings.ToLower(strings.TrimSpace(k))
		if lk == "" || seen[lk] {
			continue
		}
		seen[lk] = true
		merged = append(merged, strings.TrimSpace(k))
	}
	job.Keywords = pq.StringArray(merged)

	if b, err := json.Marshal(data); err == nil {
		job.ExtractedInfo = datatypes.JSON(b)
	}
}
