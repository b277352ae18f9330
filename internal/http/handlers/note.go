package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/chaptered/core/internal/data/repos"
	"github.com/chaptered/core/internal/domain"
	"github.com/chaptered/core/internal/http/response"
	"github.com/chaptered/core/internal/pkg/dbctx"
	"github.com/chaptered/core/internal/pkg/logger"
)

// NoteHandler exposes the resource-level study note surface. A note is keyed by
// resource_id alone and applies equally to videos and books.
type NoteHandler struct {
	log   *logger.Logger
	notes repos.NoteRepo
}

func NewNoteHandler(log *logger.Logger, notes repos.NoteRepo) *NoteHandler {
	return &NoteHandler{log: log.With("handler", "NoteHandler"), notes: notes}
}

// GetNote handles GET /api/note/:video_id (the path segment is any resource_id, video or
// book).
func (h *NoteHandler) GetNote(c *gin.Context) {
	resourceID := c.Param("video_id")
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	n, err := h.notes.GetNote(dbc, resourceID)
	if err != nil {
		respondAPIErr(c, err)
		return
	}
	response.RespondOK(c, n)
}

// UpsertNote handles POST /api/note.
func (h *NoteHandler) UpsertNote(c *gin.Context) {
	var req struct {
		VideoID     string   `json:"video_id" binding:"required"`
		NoteContent string   `json:"note_content"`
		CustomTags  []string `json:"custom_tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	n := &domain.Note{ResourceID: req.VideoID, Content: req.NoteContent}
	if len(req.CustomTags) > 0 {
		if b, err := json.Marshal(req.CustomTags); err == nil {
			n.CustomTags = datatypes.JSON(b)
		}
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.notes.UpsertNote(dbc, n); err != nil {
		respondAPIErr(c, err)
		return
	}
	response.RespondOK(c, n)
}

// ListNotes handles GET /api/notes?limit=N&channel=....
func (h *NoteHandler) ListNotes(c *gin.Context) {
	filter := repos.NoteListFilter{}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if channel := c.Query("channel"); channel != "" {
		filter.ChannelID = &channel
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	out, err := h.notes.ListNotes(dbc, filter)
	if err != nil {
		respondAPIErr(c, err)
		return
	}
	response.RespondOK(c, out)
}
