package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/applytrack/internal/backup"
	"github.com/yoockh/applytrack/internal/services"
	"github.com/yoockh/applytrack/internal/utils"
)

type MigrationHandler struct {
	svc services.MigrationService
}

func NewMigrationHandler(svc services.MigrationService) *MigrationHandler {
	return &MigrationHandler{svc: svc}
}

// Import reports per-category counts; partial failures still answer 200.
func (h *MigrationHandler) Import(c *gin.Context) {
	b, err := backup.Decode(c.Request.Body)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "MigrationHandler.Import", "invalid backup JSON", err))
		return
	}
	res, err := h.svc.Import(c.Request.Context(), b)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": res})
}

func (h *MigrationHandler) Export(c *gin.Context) {
	b, err := h.svc.Export(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="applytrack-backup-`+b.Timestamp.Format("2006-01-02")+`.json"`)
	c.JSON(http.StatusOK, b)
}

type clearRequest struct {
	Confirm string `json:"confirm"`
}

func (h *MigrationHandler) ClearAll(c *gin.Context) {
	var req clearRequest
	if !bindJSON(c, "MigrationHandler.ClearAll", &req) {
		return
	}
	res, err := h.svc.ClearAll(c.Request.Context(), req.Confirm)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": res})
}
