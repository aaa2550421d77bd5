package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/services"
	"github.com/yoockh/applytrack/internal/utils"
)

// ParseQueue hands stored jobs to background parse workers.
type ParseQueue interface {
	Enqueue(ctx context.Context, jobID string) error
}

type JobHandler struct {
	jobs   services.JobService
	parser services.ParseService
	queue  ParseQueue // nil means parse inline
}

func NewJobHandler(jobs services.JobService, parser services.ParseService, queue ParseQueue) *JobHandler {
	return &JobHandler{jobs: jobs, parser: parser, queue: queue}
}

func (h *JobHandler) List(c *gin.Context) {
	f := models.JobFilter{
		Status:  c.Query("status"),
		Company: c.Query("company"),
		Search:  c.Query("search"),
	}
	if v := c.Query("archived"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "JobHandler.List", "archived must be true or false", err))
			return
		}
		f.Archived = &b
	}

	out, err := h.jobs.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *JobHandler) Get(c *gin.Context) {
	out, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *JobHandler) Create(c *gin.Context) {
	var in services.JobInput
	if !bindJSON(c, "JobHandler.Create", &in) {
		return
	}
	out, err := h.jobs.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *JobHandler) Update(c *gin.Context) {
	var p services.JobPatch
	if !bindJSON(c, "JobHandler.Update", &p) {
		return
	}
	out, err := h.jobs.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *JobHandler) Delete(c *gin.Context) {
	if err := h.jobs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *JobHandler) Archive(c *gin.Context) {
	out, err := h.jobs.Archive(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *JobHandler) MarkDuplicate(c *gin.Context) {
	out, err := h.jobs.MarkDuplicate(c.Request.Context(), c.Param("id"), c.Param("duplicateId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *JobHandler) Stats(c *gin.Context) {
	out, err := h.jobs.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type parseTextRequest struct {
	RawText string `json:"rawText"`
	Context string `json:"context"`
}

// ParseText answers 200 with a ParseResult even when parsing failed; the
// failure kind is in the body.
func (h *JobHandler) ParseText(c *gin.Context) {
	var req parseTextRequest
	if !bindJSON(c, "JobHandler.ParseText", &req) {
		return
	}
	c.JSON(http.StatusOK, h.parser.Parse(c.Request.Context(), req.RawText, req.Context))
}

type parseJobResponse struct {
	Job    *models.JobDescription `json:"job"`
	Result *services.ParseResult  `json:"result,omitempty"`
	Queued bool                   `json:"queued"`
}

func (h *JobHandler) ParseJob(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if h.queue != nil {
		job, err := h.parser.BeginJob(ctx, id)
		if err != nil {
			writeError(c, err)
			return
		}
		qerr := h.queue.Enqueue(ctx, id)
		if qerr == nil {
			c.JSON(http.StatusAccepted, parseJobResponse{Job: job, Queued: true})
			return
		}
		_ = c.Error(qerr)
		// queue unavailable: fall through to an inline run
		job, res, err := h.parser.RunJob(ctx, id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, parseJobResponse{Job: job, Result: &res})
		return
	}

	job, res, err := h.parser.ParseJob(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, parseJobResponse{Job: job, Result: &res})
}
