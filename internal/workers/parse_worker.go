package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/applytrack/internal/services"
)

// ParseWorkerPool drains queued job parses from a Redis stream. Each message
// carries a job id that was already moved to the parsing state.
type ParseWorkerPool struct {
	Redis      *redis.Client
	Parser     services.ParseService
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
	// JobTimeout bounds one completion call.
	JobTimeout time.Duration
}

func (p *ParseWorkerPool) defaults() {
	if p.Stream == "" {
		p.Stream = "applytrack:parse"
	}
	if p.Group == "" {
		p.Group = "parse-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.JobTimeout <= 0 {
		p.JobTimeout = 90 * time.Second
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}
}

func (p *ParseWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Parser == nil {
		return errors.New("ParseWorkerPool missing dependency: Redis/Parser must be set")
	}
	p.defaults()

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	p.Logger.WithFields(logrus.Fields{"stream": p.Stream, "workers": p.NumWorkers}).Info("parse workers started")
	return nil
}

// Enqueue hands a job to the pool.
func (p *ParseWorkerPool) Enqueue(ctx context.Context, jobID string) error {
	p.defaults()
	return p.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: p.Stream,
		Values: map[string]any{"job_id": jobID},
	}).Err()
}

func (p *ParseWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    5,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).Warn("parse stream read failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

// handleMsg runs one parse. Failures are recorded on the job by the parser and
// never retried from here.
func (p *ParseWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	jobID, _ := msg.Values["job_id"].(string)
	if jobID == "" {
		return
	}
	log := p.Logger.WithFields(logrus.Fields{"redis_id": msg.ID, "job_id": jobID})

	jctx, cancel := context.WithTimeout(ctx, p.JobTimeout)
	defer cancel()

	start := time.Now()
	_, res, err := p.Parser.RunJob(jctx, jobID)
	if err != nil {
		log.WithError(err).Error("parse job failed")
		return
	}
	fields := logrus.Fields{"cached": res.Cached, "elapsed_ms": time.Since(start).Milliseconds()}
	if !res.Success {
		log.WithFields(fields).WithField("kind", res.Error.Kind).Warn("parse finished with failure")
		return
	}
	log.WithFields(fields).Info("parse finished")
}
