package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chaptered/core/internal/data/repos"
	"github.com/chaptered/core/internal/domain"
	"github.com/chaptered/core/internal/http/response"
	"github.com/chaptered/core/internal/pkg/dbctx"
	"github.com/chaptered/core/internal/pkg/logger"
)

// PromptsHandler exposes the seeded, read-only prompt templates (mutation is out
// of scope for this service; rows are seeded once by migration).
type PromptsHandler struct {
	log        *logger.Logger
	promptSets repos.PromptSetRepo
}

func NewPromptsHandler(log *logger.Logger, promptSets repos.PromptSetRepo) *PromptsHandler {
	return &PromptsHandler{log: log.With("handler", "PromptsHandler"), promptSets: promptSets}
}

// ListPrompts handles GET /api/prompts?content_type=video|book. Omitting content_type
// returns every seeded prompt set.
func (h *PromptsHandler) ListPrompts(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}

	contentType := c.Query("content_type")
	if contentType == "" {
		out, err := h.promptSets.ListPromptSets(dbc)
		if err != nil {
			respondAPIErr(c, err)
			return
		}
		response.RespondOK(c, out)
		return
	}

	out, err := h.promptSets.ListPromptSetsForKind(dbc, domain.ResourceKind(contentType))
	if err != nil {
		respondAPIErr(c, err)
		return
	}
	response.RespondOK(c, out)
}
