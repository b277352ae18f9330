package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/chaptered/core/internal/http/handlers"
	httpMW "github.com/chaptered/core/internal/http/middleware"
	"github.com/chaptered/core/internal/pkg/logger"
)

// RouterConfig wires every handler the API exposes plus the shared middleware.
type RouterConfig struct {
	Log            *logger.Logger
	CORSOrigins    []string
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler  *httpH.HealthHandler
	AuthHandler    *httpH.AuthHandler
	VideoHandler   *httpH.VideoHandler
	BookHandler    *httpH.BookHandler
	NoteHandler    *httpH.NoteHandler
	ChunksHandler  *httpH.ChunksHandler
	PromptsHandler *httpH.PromptsHandler
}

// NewRouter wires the HTTP surface: a small public group (health, verify-email) and a
// bearer-token-protected group for everything that reads or mutates resources.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	if cfg.AuthHandler != nil {
		api.POST("/auth/verify-email", cfg.AuthHandler.VerifyEmail)
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	if cfg.VideoHandler != nil {
		protected.POST("/video", cfg.VideoHandler.CreateVideo)
		protected.POST("/video/process-subtitles", cfg.VideoHandler.ProcessSubtitles)
		protected.POST("/video/process-ai", cfg.VideoHandler.ProcessAI)
		protected.DELETE("/video/:video_id", cfg.VideoHandler.DeleteVideo)
	}

	if cfg.ChunksHandler != nil {
		protected.GET("/chunks/:video_id", cfg.ChunksHandler.ListChunks)
		protected.GET("/chunks/:video_id/index", cfg.ChunksHandler.ChunksIndex)
		protected.GET("/chunks/:video_id/ai-status", cfg.ChunksHandler.AIStatus)
	}

	if cfg.NoteHandler != nil {
		protected.GET("/note/:video_id", cfg.NoteHandler.GetNote)
		protected.POST("/note", cfg.NoteHandler.UpsertNote)
		protected.GET("/notes", cfg.NoteHandler.ListNotes)
	}

	if cfg.BookHandler != nil {
		protected.POST("/book", cfg.BookHandler.CreateBook)
		protected.GET("/book/:book_id", cfg.BookHandler.GetBook)
		protected.GET("/books", cfg.BookHandler.ListBooks)
		protected.GET("/book/:book_id/chapters", cfg.BookHandler.ListChapters)
		protected.GET("/book/:book_id/chapters/index", cfg.BookHandler.ChaptersIndex)
		protected.GET("/book/:book_id/chapter/:chapter_id", cfg.BookHandler.GetChapter)
		protected.PUT("/book/:book_id/chapter/:chapter_id/title", cfg.BookHandler.RenameChapter)
		protected.PUT("/book/:book_id/chapter/:chapter_id/text", cfg.BookHandler.ReplaceChapterText)
		protected.POST("/book/:book_id/chapters/reorder", cfg.BookHandler.ReorderChapters)
		protected.DELETE("/book/:book_id/chapter/:chapter_id", cfg.BookHandler.DeleteChapter)
		protected.POST("/book/:book_id/chapter/:chapter_id/note", cfg.BookHandler.AddChapterNote)
		protected.POST("/book/process-ai", cfg.BookHandler.ProcessAI)
		protected.DELETE("/book/:book_id", cfg.BookHandler.DeleteBook)
	}

	if cfg.PromptsHandler != nil {
		protected.GET("/prompts", cfg.PromptsHandler.ListPrompts)
	}

	return r
}
