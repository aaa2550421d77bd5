package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/applytrack/internal/api/handlers"
	"github.com/yoockh/applytrack/internal/api/middleware"
)

type Deps struct {
	Auth         middleware.AuthConfig
	Jobs         *handlers.JobHandler
	Resumes      *handlers.DocumentHandler
	CoverLetters *handlers.DocumentHandler
	Migration    *handlers.MigrationHandler
	ScraperCache *handlers.ScraperCacheHandler
	Activity     *handlers.ActivityWSHandler // optional
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.Auth))

	jobs := auth.Group("/job-descriptions")
	jobs.GET("", d.Jobs.List)
	jobs.POST("", d.Jobs.Create)
	jobs.GET("/stats/summary", d.Jobs.Stats)
	jobs.POST("/parse", d.Jobs.ParseText)
	jobs.GET("/:id", d.Jobs.Get)
	jobs.PUT("/:id", d.Jobs.Update)
	jobs.DELETE("/:id", d.Jobs.Delete)
	jobs.POST("/:id/archive", d.Jobs.Archive)
	jobs.POST("/:id/duplicate/:duplicateId", d.Jobs.MarkDuplicate)
	jobs.POST("/:id/parse", d.Jobs.ParseJob)

	documentRoutes(auth.Group("/resumes"), d.Resumes)
	documentRoutes(auth.Group("/cover-letters"), d.CoverLetters)

	mig := auth.Group("/migration")
	mig.POST("/import-from-indexeddb", d.Migration.Import)
	mig.GET("/export-to-json", d.Migration.Export)
	mig.DELETE("/clear-all-data", middleware.RequireAdmin(), d.Migration.ClearAll)

	sc := auth.Group("/scraper-cache")
	sc.GET("", d.ScraperCache.List)
	sc.POST("", d.ScraperCache.Store)
	sc.POST("/lookup", d.ScraperCache.Lookup)
	sc.DELETE("/expired", d.ScraperCache.CleanupExpired)

	// WebSocket
	if d.Activity != nil {
		auth.GET("/ws/activity", d.Activity.Stream)
	}
}

func documentRoutes(g *gin.RouterGroup, h *handlers.DocumentHandler) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.POST("/upload", h.Upload)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/jobs", h.Jobs)
	g.POST("/:id/link-job/:jobId", h.Link)
	g.DELETE("/:id/unlink-job/:jobId", h.Unlink)
}
