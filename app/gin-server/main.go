package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/applytrack/config"
	"github.com/yoockh/applytrack/internal/api/handlers"
	"github.com/yoockh/applytrack/internal/api/middleware"
	"github.com/yoockh/applytrack/internal/api/routes"
	"github.com/yoockh/applytrack/internal/backup"
	"github.com/yoockh/applytrack/internal/cache"
	"github.com/yoockh/applytrack/internal/events"
	"github.com/yoockh/applytrack/internal/logger"
	"github.com/yoockh/applytrack/internal/providers/llm"
	"github.com/yoockh/applytrack/internal/repositories"
	"github.com/yoockh/applytrack/internal/repositories/memory"
	"github.com/yoockh/applytrack/internal/repositories/postgres"
	"github.com/yoockh/applytrack/internal/services"
	"github.com/yoockh/applytrack/internal/workers"
)

type repos struct {
	jobs         repositories.JobRepository
	resumes      repositories.DocumentRepository
	coverLetters repositories.DocumentRepository
	cache        repositories.ScraperCacheRepository
}

func main() {
	_ = godotenv.Load()

	cfg := config.LoadAppConfig()
	log := logger.New(cfg.LogLevel)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	var r repos
	if cfg.Storage == "memory" {
		store := memory.NewStore()
		r = repos{store.Jobs(), store.Resumes(), store.CoverLetters(), store.ScraperCache()}
		log.WithField("file", cfg.LocalDataFile).Info("using in-memory storage")
	} else {
		if err := config.InitPostgres(); err != nil {
			log.WithError(err).Fatal("PostgreSQL init error")
		}
		if err := config.MigratePostgres(config.PostgresDB); err != nil {
			log.WithError(err).Fatal("PostgreSQL migration error")
		}
		db := config.PostgresDB
		r = repos{postgres.NewJobRepo(db), postgres.NewResumeRepo(db), postgres.NewCoverLetterRepo(db), postgres.NewScraperCacheRepo(db)}
		log.Info("PostgreSQL connected")
	}

	// Redis is optional: without it the parse cache is in memory, parses run
	// inline and the activity feed is process-local.
	if err := config.InitRedis(ctx); err != nil {
		log.WithError(err).Fatal("Redis init error")
	}
	var (
		parseCache cache.Cache
		pub        events.Publisher
		feed       events.Subscriber
	)
	if config.RedisClient != nil {
		parseCache = cache.NewRedisCache(config.RedisClient, "applytrack:parse:", cfg.AICacheTTL)
		rp := events.NewRedisPublisher(config.RedisClient, events.DefaultChannel)
		pub, feed = rp, rp
		log.Info("Redis connected")
	} else {
		parseCache = cache.NewMemoryCache(cfg.AICacheSize, cfg.AICacheTTL)
		hub := events.NewHub()
		pub, feed = hub, hub
	}

	provider, err := llm.New(ctx, llm.Settings{
		Provider: cfg.AIProvider,
		APIKey:   cfg.AIAPIKey,
		URL:      cfg.AIAPIURL,
		Model:    cfg.AIModel,
		Project:  cfg.VertexProject,
		Location: cfg.VertexLocation,
	})
	if err != nil {
		log.WithError(err).Fatal("AI provider init error")
	}
	if provider == nil {
		log.Warn("no AI provider configured; parsing only serves cached results")
	}

	// Services
	jobSvc := services.NewJobService(r.jobs, r.resumes, r.coverLetters, pub, log)
	resumeSvc := services.NewDocumentService(r.resumes, r.jobs)
	coverSvc := services.NewDocumentService(r.coverLetters, r.jobs)
	migrationSvc := services.NewMigrationService(r.jobs, r.resumes, r.coverLetters, r.cache, log)
	cacheSvc := services.NewScraperCacheService(r.cache)
	parseSvc := services.NewParseService(provider, parseCache, r.cache, r.jobs, pub, log, services.ParseConfig{
		CacheTTL:   cfg.AICacheTTL,
		PersistTTL: cfg.AIPersistTTL,
	})

	if cfg.Storage == "memory" {
		if err := loadLocalData(ctx, migrationSvc, cfg.LocalDataFile, log); err != nil {
			log.WithError(err).Fatal("failed to load local data")
		}
	}

	var queue handlers.ParseQueue
	if config.RedisClient != nil {
		pool := &workers.ParseWorkerPool{
			Redis:      config.RedisClient,
			Parser:     parseSvc,
			NumWorkers: cfg.ParseWorkers,
			Logger:     log,
		}
		if err := pool.Start(ctx); err != nil {
			log.WithError(err).Fatal("parse worker init error")
		}
		queue = pool
	}

	// Gin
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestLogger(log))
	engine.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	routes.RegisterRoutes(engine, routes.Deps{
		Auth: middleware.AuthConfig{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		},
		Jobs:         handlers.NewJobHandler(jobSvc, parseSvc, queue),
		Resumes:      handlers.NewDocumentHandler(resumeSvc),
		CoverLetters: handlers.NewDocumentHandler(coverSvc),
		Migration:    handlers.NewMigrationHandler(migrationSvc),
		ScraperCache: handlers.NewScraperCacheHandler(cacheSvc),
		Activity:     handlers.NewActivityWSHandler(feed, cfg.CORSOrigins),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("applytrack API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}

	if cfg.Storage == "memory" {
		if err := saveLocalData(shutdownCtx, migrationSvc, cfg.LocalDataFile); err != nil {
			log.WithError(err).Error("failed to save local data")
		} else {
			log.WithField("file", cfg.LocalDataFile).Info("local data saved")
		}
	}
	if config.RedisClient != nil {
		_ = config.RedisClient.Close()
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	c.ExposeHeaders = []string{"Content-Disposition", middleware.RequestIDHeader}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

// loadLocalData seeds the in-memory store from the last saved backup, if any.
func loadLocalData(ctx context.Context, svc services.MigrationService, path string, log *logrus.Logger) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := backup.Decode(f)
	if err != nil {
		return err
	}
	res, err := svc.Import(ctx, b)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"jobs":         res.JobDescriptions.Imported,
		"resumes":      res.Resumes.Imported,
		"coverLetters": res.CoverLetters.Imported,
	}).Info("local data loaded")
	return nil
}

func saveLocalData(ctx context.Context, svc services.MigrationService, path string) error {
	b, err := svc.Export(ctx)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := backup.Encode(f, b); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
