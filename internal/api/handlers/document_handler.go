package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/applytrack/internal/services"
	"github.com/yoockh/applytrack/internal/utils"
)

// DocumentHandler serves one document family (resumes or cover letters).
type DocumentHandler struct {
	svc services.DocumentService
}

func NewDocumentHandler(svc services.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

func (h *DocumentHandler) List(c *gin.Context) {
	out, err := h.svc.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	out, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DocumentHandler) Create(c *gin.Context) {
	var in services.DocumentInput
	if !bindJSON(c, "DocumentHandler.Create", &in) {
		return
	}
	out, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// Upload takes a multipart form with a "file" field plus optional name,
// targetCompany and targetRole fields.
func (h *DocumentHandler) Upload(c *gin.Context) {
	const op = "DocumentHandler.Upload"

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing multipart field 'file'", err))
		return
	}
	if fh.Size > services.MaxUploadBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "file too large (max 10MB)", nil))
		return
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to open upload", err))
		return
	}
	defer file.Close()

	out, err := h.svc.Upload(c.Request.Context(), services.UploadInput{
		Name:          c.PostForm("name"),
		FileName:      fh.Filename,
		TargetCompany: c.PostForm("targetCompany"),
		TargetRole:    c.PostForm("targetRole"),
		Body:          file,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *DocumentHandler) Update(c *gin.Context) {
	var p services.DocumentPatch
	if !bindJSON(c, "DocumentHandler.Update", &p) {
		return
	}
	out, err := h.svc.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *DocumentHandler) Link(c *gin.Context) {
	out, err := h.svc.Link(c.Request.Context(), c.Param("id"), c.Param("jobId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// Unlink succeeds whether or not the link existed.
func (h *DocumentHandler) Unlink(c *gin.Context) {
	if err := h.svc.Unlink(c.Request.Context(), c.Param("id"), c.Param("jobId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *DocumentHandler) Jobs(c *gin.Context) {
	out, err := h.svc.Jobs(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
