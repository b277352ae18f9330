package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chaptered/core/internal/data/repos"
	"github.com/chaptered/core/internal/http/response"
	"github.com/chaptered/core/internal/pkg/dbctx"
	"github.com/chaptered/core/internal/pkg/logger"
)

// ChunksHandler exposes a video's chunk list and the lightweight polling shapes
// ProcessAI's callers use to watch enrichment progress.
type ChunksHandler struct {
	log    *logger.Logger
	chunks repos.ChunkRepo
}

func NewChunksHandler(log *logger.Logger, chunks repos.ChunkRepo) *ChunksHandler {
	return &ChunksHandler{log: log.With("handler", "ChunksHandler"), chunks: chunks}
}

// ListChunks handles GET /api/chunks/:video_id: the full chunk list with metadata and AI
// fields, but never the chunk's actual text body.
func (h *ChunksHandler) ListChunks(c *gin.Context) {
	videoID := c.Param("video_id")
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	out, err := h.chunks.ListChunks(dbc, videoID)
	if err != nil {
		respondAPIErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// ChunksIndex handles GET /api/chunks/:video_id/index.
func (h *ChunksHandler) ChunksIndex(c *gin.Context) {
	videoID := c.Param("video_id")
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	out, err := h.chunks.GetChunksIndex(dbc, videoID)
	if err != nil {
		respondAPIErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// AIStatus handles GET /api/chunks/:video_id/ai-status?chunk_id=N. Omitting chunk_id
// reports every chunk.
func (h *ChunksHandler) AIStatus(c *gin.Context) {
	videoID := c.Param("video_id")

	var chunkID *int
	if raw := c.Query("chunk_id"); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil {
			chunkID = &id
		}
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	out, err := h.chunks.GetChunksAIStatus(dbc, videoID, chunkID)
	if err != nil {
		respondAPIErr(c, err)
		return
	}
	response.RespondOK(c, out)
}
