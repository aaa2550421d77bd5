package workers

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/yoockh/applytrack/internal/logger"
	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/services"
)

type stubParser struct {
	services.ParseService
	ran []string
}

func (s *stubParser) RunJob(_ context.Context, jobID string) (*models.JobDescription, services.ParseResult, error) {
	s.ran = append(s.ran, jobID)
	return &models.JobDescription{ID: jobID}, services.ParseResult{Success: true}, nil
}

func TestHandleMsgRunsQueuedJob(t *testing.T) {
	parser := &stubParser{}
	p := &ParseWorkerPool{Parser: parser, Logger: logger.Discard()}
	p.defaults()

	p.handleMsg(context.Background(), redis.XMessage{ID: "1-0", Values: map[string]any{"job_id": "job-1"}})
	p.handleMsg(context.Background(), redis.XMessage{ID: "1-1", Values: map[string]any{}})

	assert.Equal(t, []string{"job-1"}, parser.ran)
}

func TestStartRequiresDependencies(t *testing.T) {
	p := &ParseWorkerPool{}
	assert.Error(t, p.Start(context.Background()))
}
