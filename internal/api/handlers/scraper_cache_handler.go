package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/applytrack/internal/services"
)

type ScraperCacheHandler struct {
	svc services.ScraperCacheService
}

func NewScraperCacheHandler(svc services.ScraperCacheService) *ScraperCacheHandler {
	return &ScraperCacheHandler{svc: svc}
}

type cacheLookupRequest struct {
	Input string `json:"input"`
}

type cacheStoreRequest struct {
	Input      string          `json:"input"`
	Result     json.RawMessage `json:"result"`
	TTLSeconds int             `json:"ttlSeconds"`
}

func (h *ScraperCacheHandler) Lookup(c *gin.Context) {
	var req cacheLookupRequest
	if !bindJSON(c, "ScraperCacheHandler.Lookup", &req) {
		return
	}
	row, err := h.svc.Lookup(c.Request.Context(), req.Input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *ScraperCacheHandler) Store(c *gin.Context) {
	var req cacheStoreRequest
	if !bindJSON(c, "ScraperCacheHandler.Store", &req) {
		return
	}
	row, err := h.svc.Store(c.Request.Context(), req.Input, req.Result, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *ScraperCacheHandler) List(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ScraperCacheHandler) CleanupExpired(c *gin.Context) {
	n, err := h.svc.CleanupExpired(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
