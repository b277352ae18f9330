package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chaptered/core/internal/domain"
	"github.com/chaptered/core/internal/http/response"
	"github.com/chaptered/core/internal/orchestrator"
	"github.com/chaptered/core/internal/pkg/logger"
	"github.com/chaptered/core/internal/platform/apierr"
)

// VideoHandler drives a video resource through ProcessMetadata, ProcessChunks and
// ProcessEnrichment, and exposes its cascade delete.
type VideoHandler struct {
	log *logger.Logger
	orc orchestrator.Orchestrator
}

func NewVideoHandler(log *logger.Logger, orc orchestrator.Orchestrator) *VideoHandler {
	return &VideoHandler{log: log.With("handler", "VideoHandler"), orc: orc}
}

// CreateVideo handles POST /api/video.
func (h *VideoHandler) CreateVideo(c *gin.Context) {
	var req struct {
		VideoURL string `json:"video_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	res, err := h.orc.ProcessMetadata(c.Request.Context(), req.VideoURL)
	if err != nil {
		apiErr := apierr.From(err)
		response.RespondError(c, apiErr.Status, apiErr.Code, apiErr)
		return
	}
	response.RespondOK(c, res)
}

// ProcessSubtitles handles POST /api/video/process-subtitles.
func (h *VideoHandler) ProcessSubtitles(c *gin.Context) {
	var req struct {
		VideoID string `json:"video_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	if err := h.orc.ProcessChunks(c.Request.Context(), req.VideoID); err != nil {
		apiErr := apierr.From(err)
		response.RespondError(c, apiErr.Status, apiErr.Code, apiErr)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// ProcessAI handles POST /api/video/process-ai. Enrichment runs in the background; the
// request returns as soon as it is scheduled.
func (h *VideoHandler) ProcessAI(c *gin.Context) {
	var req struct {
		VideoID string `json:"video_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	videoID := req.VideoID
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := h.orc.ProcessEnrichment(bgCtx, videoID, domain.ResourceKindVideo); err != nil {
			h.log.Warn("background video enrichment failed", "video_id", videoID, "error", err.Error())
		}
	}()

	response.RespondOK(c, gin.H{"started": true})
}

// DeleteVideo handles DELETE /api/video/:video_id.
func (h *VideoHandler) DeleteVideo(c *gin.Context) {
	videoID := c.Param("video_id")
	if err := h.orc.DeleteResource(c.Request.Context(), videoID); err != nil {
		apiErr := apierr.From(err)
		response.RespondError(c, apiErr.Status, apiErr.Code, apiErr)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
