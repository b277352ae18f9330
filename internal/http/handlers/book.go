package handlers

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chaptered/core/internal/clients/gcp"
	"github.com/chaptered/core/internal/data/repos"
	"github.com/chaptered/core/internal/domain"
	"github.com/chaptered/core/internal/http/response"
	"github.com/chaptered/core/internal/orchestrator"
	"github.com/chaptered/core/internal/pkg/dbctx"
	sentinel "github.com/chaptered/core/internal/pkg/errors"
	"github.com/chaptered/core/internal/pkg/logger"
	"github.com/chaptered/core/internal/pkg/pointers"
	"github.com/chaptered/core/internal/platform/apierr"
)

// BookHandler owns the book surface: books are Resource rows of kind "book" whose
// chapters are ordinary chunk rows with a user-supplied title instead of an AI-generated
// one. Creation and the chapter-shaping endpoints (reorder/delete/text-replace) go
// through the repos and orchestrator directly rather than the video ingestion
// pipeline, since a book's chapters arrive pre-segmented from the caller.
type BookHandler struct {
	log       *logger.Logger
	orc       orchestrator.Orchestrator
	resources repos.ResourceRepo
	chunks    repos.ChunkRepo
	store     gcp.ObjectStore
}

func NewBookHandler(log *logger.Logger, orc orchestrator.Orchestrator, resources repos.ResourceRepo, chunks repos.ChunkRepo, store gcp.ObjectStore) *BookHandler {
	return &BookHandler{
		log:       log.With("handler", "BookHandler"),
		orc:       orc,
		resources: resources,
		chunks:    chunks,
		store:     store,
	}
}

type chapterInput struct {
	ChapterTitle string `json:"chapter_title"`
	ChapterText  string `json:"chapter_text"`
}

func respondAPIErr(c *gin.Context, err error) {
	apiErr := apierr.From(err)
	response.RespondError(c, apiErr.Status, apiErr.Code, apiErr)
}

var bookIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// normalizeBookID lowers a caller-supplied book slug into the [a-z0-9_]+ form resource
// IDs use, mapping spaces and hyphens to underscores and dropping anything else.
func normalizeBookID(raw string) (string, error) {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r == ' ' || r == '-':
			return '_'
		default:
			return -1
		}
	}, strings.ToLower(strings.TrimSpace(raw)))
	if !bookIDPattern.MatchString(s) {
		return "", fmt.Errorf("%w: book_id must normalize to [a-z0-9_]+, got %q", sentinel.ErrInvalidArgument, raw)
	}
	return s, nil
}

func parseChapterID(c *gin.Context) (int, error) {
	raw := c.Param("chapter_id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: chapter_id must be an integer, got %q", sentinel.ErrInvalidArgument, raw)
	}
	return id, nil
}

// CreateBook handles POST /api/book. The request body's chapters list is the
// authoritative chunk sequence: it replaces whatever chunks (none, on first
// creation) exist for book_id.
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req struct {
		BookID      string         `json:"book_id" binding:"required"`
		Title       string         `json:"title" binding:"required"`
		Author      string         `json:"author"`
		Description string         `json:"description"`
		Chapters    []chapterInput `json:"chapters"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	bookID, err := normalizeBookID(req.BookID)
	if err != nil {
		respondAPIErr(c, err)
		return
	}

	res := &domain.Resource{
		ID:              bookID,
		Kind:            domain.ResourceKindBook,
		Title:           req.Title,
		AuthorOrChannel: req.Author,
	}
	if req.Description != "" {
		res.Description = pointers.String(req.Description)
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.resources.UpsertResource(dbc, res); err != nil {
		respondAPIErr(c, err)
		return
	}

	seeds := make([]orchestrator.ChunkSeed, len(req.Chapters))
	for i, ch := range req.Chapters {
		seeds[i] = orchestrator.ChunkSeed{Title: ch.ChapterTitle, Text: ch.ChapterText}
	}
	if err := h.orc.PersistChunks(c.Request.Context(), bookID, seeds); err != nil {
		respondAPIErr(c, err)
		return
	}

	stored, err := h.resources.GetResource(dbc, bookID)
	if err != nil {
		respondAPIErr(c, err)
		return
	}
	response.RespondOK(c, stored)
}

// GetBook handles GET /api/book/:book_id.
func (h *BookHandler) GetBook(c *gin.Context) {
	bookID := c.Param("book_id")
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	res, err := h.resources.GetResource(dbc, bookID)
	if err != nil {
		respondAPIErr(c, err)
		return
	}
	if res.Kind != domain.ResourceKindBook {
		respondAPIErr(c, fmt.Errorf("%w: resource %s is not a book", sentinel.ErrNotFound, bookID))
		return
	}
	response.RespondOK(c, res)
}

// ListBooks handles GET /api/books.
func (h *BookHandler) ListBooks(c *gin.Context) {
	kind := domain.ResourceKindBook
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	out, err := h.resources.ListResources(dbc, repos.ResourceFilter{Kind: &kind})
	if err != nil {
		respondAPIErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

type chapterView struct {
	ChapterID    int    `json:"chapter_id"`
	ChapterTitle string `json:"chapter_title,omitempty"`
	ChapterText  string `json:"chapter_text,omitempty"`
	AIField1     string `json:"ai_field_1,omitempty"`
	AIField2     string `json:"ai_field_2,omitempty"`
	AIField3     string `json:"ai_field_3,omitempty"`
	NoteContent  string `json:"note_content,omitempty"`
}

// ListChapters handles GET /api/book/:book_id/chapters: the full chapter list with text,
// one object-store read per chapter.
func (h *BookHandler) ListChapters(c *gin.Context) {
	bookID := c.Param("book_id")
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.chunks.ListChunks(dbc, bookID)
	if err != nil {
		respondAPIErr(c, err)
		return
	}

	out := make([]chapterView, 0, len(rows))
	for _, r := range rows {
		text, err := h.store.GetText(c.Request.Context(), r.TextRef)
		if err != nil {
			h.log.Warn("could not load chapter text", "book_id", bookID, "chapter_id", r.ChunkID, "error", err.Error())
		}
		out = append(out, chapterView{
			ChapterID:    r.ChunkID,
			ChapterTitle: r.ShortTitle,
			ChapterText:  text,
			AIField1:     r.AIField1,
			AIField2:     r.AIField2,
			AIField3:     r.AIField3,
			NoteContent:  r.NoteContent,
		})
	}
	response.RespondOK(c, out)
}

// ChaptersIndex handles GET /api/book/:book_id/chapters/index.
func (h *BookHandler) ChaptersIndex(c *gin.Context) {
	bookID := c.Param("book_id")
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.chunks.GetChunksIndex(dbc, bookID)
	if err != nil {
		respondAPIErr(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GetChapter handles GET /api/book/:book_id/chapter/:chapter_id.
func (h *BookHandler) GetChapter(c *gin.Context) {
	bookID := c.Param("book_id")
	chapterID, err := parseChapterID(c)
	if err != nil {
		respondAPIErr(c, err)
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	chunk, err := h.chunks.GetChunk(dbc, bookID, chapterID)
	if err != nil {
		respondAPIErr(c, err)
		return
	}

	view := chapterView{
		ChapterID:    chunk.ChunkID,
		ChapterTitle: chunk.ShortTitle,
		AIField1:     chunk.AIField1,
		AIField2:     chunk.AIField2,
		AIField3:     chunk.AIField3,
		NoteContent:  chunk.NoteContent,
	}
	if c.Query("include_text") == "true" {
		text, err := h.store.GetText(c.Request.Context(), chunk.TextRef)
		if err != nil {
			respondAPIErr(c, err)
			return
		}
		view.ChapterText = text
	}
	response.RespondOK(c, view)
}

// RenameChapter handles PUT /api/book/:book_id/chapter/:chapter_id/title.
func (h *BookHandler) RenameChapter(c *gin.Context) {
	bookID := c.Param("book_id")
	chapterID, err := parseChapterID(c)
	if err != nil {
		respondAPIErr(c, err)
		return
	}
	var req struct {
		ChapterTitle string `json:"chapter_title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.chunks.UpdateChunkAIFields(dbc, bookID, chapterID, repos.ChunkFields{ShortTitle: &req.ChapterTitle}); err != nil {
		respondAPIErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// ReplaceChapterText handles PUT /api/book/:book_id/chapter/:chapter_id/text.
func (h *BookHandler) ReplaceChapterText(c *gin.Context) {
	bookID := c.Param("book_id")
	chapterID, err := parseChapterID(c)
	if err != nil {
		respondAPIErr(c, err)
		return
	}
	var req struct {
		ChapterText string `json:"chapter_text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	if err := h.orc.ReplaceChunkText(c.Request.Context(), bookID, chapterID, req.ChapterText); err != nil {
		respondAPIErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// ReorderChapters handles POST /api/book/:book_id/chapters/reorder.
func (h *BookHandler) ReorderChapters(c *gin.Context) {
	bookID := c.Param("book_id")
	var req struct {
		ChapterOrder []int `json:"chapter_order" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.chunks.ReorderChunks(dbc, bookID, req.ChapterOrder); err != nil {
		respondAPIErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// DeleteChapter handles DELETE /api/book/:book_id/chapter/:chapter_id.
func (h *BookHandler) DeleteChapter(c *gin.Context) {
	bookID := c.Param("book_id")
	chapterID, err := parseChapterID(c)
	if err != nil {
		respondAPIErr(c, err)
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	chunk, err := h.chunks.GetChunk(dbc, bookID, chapterID)
	if err != nil {
		respondAPIErr(c, err)
		return
	}
	// Object-store payload goes first (a text_ref must never outlive
	// its owning chunk row, but the row may briefly outlive a deleted payload).
	if err := h.store.DeleteText(c.Request.Context(), chunk.TextRef); err != nil {
		respondAPIErr(c, err)
		return
	}
	if err := h.chunks.DeleteChunk(dbc, bookID, chapterID); err != nil {
		respondAPIErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// AddChapterNote handles POST /api/book/:book_id/chapter/:chapter_id/note.
func (h *BookHandler) AddChapterNote(c *gin.Context) {
	bookID := c.Param("book_id")
	chapterID, err := parseChapterID(c)
	if err != nil {
		respondAPIErr(c, err)
		return
	}
	var req struct {
		NoteContent string `json:"note_content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.chunks.UpdateChunkNote(dbc, bookID, chapterID, req.NoteContent); err != nil {
		respondAPIErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// ProcessAI handles POST /api/book/process-ai, mirroring the video endpoint's
// fire-and-forget contract: enrichment runs in the background and the request returns
// immediately.
func (h *BookHandler) ProcessAI(c *gin.Context) {
	var req struct {
		BookID string `json:"book_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	bookID := req.BookID
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := h.orc.ProcessEnrichment(bgCtx, bookID, domain.ResourceKindBook); err != nil {
			h.log.Warn("background book enrichment failed", "book_id", bookID, "error", err.Error())
		}
	}()

	response.RespondOK(c, gin.H{"started": true})
}

// DeleteBook handles DELETE /api/book/:book_id.
func (h *BookHandler) DeleteBook(c *gin.Context) {
	bookID := c.Param("book_id")
	if err := h.orc.DeleteResource(c.Request.Context(), bookID); err != nil {
		respondAPIErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
