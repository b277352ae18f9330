// Package orchestrator implements the pipeline stages that drive a resource through
// NoResource -> MetadataOnly -> Chunked -> PartiallyEnriched -> FullyEnriched,
// composing the fetcher, extractor, chunker, enricher, object store and repos, and
// guarding the write-heavy stages with a per-resource lock so two concurrent callers
// for the same resource_id never interleave writes.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/chaptered/core/internal/chunk"
	"github.com/chaptered/core/internal/clients/gcp"
	"github.com/chaptered/core/internal/data/repos"
	"github.com/chaptered/core/internal/domain"
	"github.com/chaptered/core/internal/enrich"
	"github.com/chaptered/core/internal/ingest/subtitles"
	"github.com/chaptered/core/internal/ingest/youtube"
	"github.com/chaptered/core/internal/pkg/dbctx"
	sentinel "github.com/chaptered/core/internal/pkg/errors"
	"github.com/chaptered/core/internal/pkg/logger"
	"github.com/chaptered/core/internal/reslock"
)

// Orchestrator is the pipeline's stage-level contract.
type Orchestrator interface {
	// ProcessMetadata resolves a video URL/ID via the YouTube fetcher and upserts it
	// as a Resource.
	// Idempotent; never touches chunks.
	ProcessMetadata(ctx context.Context, urlOrID string) (*domain.Resource, error)

	// ProcessChunks extracts a video's subtitles, chunks them, writes the text
	// bodies to the object store and replaces the chunk rows. Idempotent: rerunning
	// produces the same chunk_ids 1..N and fresh text refs. Lock-guarded per
	// resource_id.
	ProcessChunks(ctx context.Context, videoID string) error

	// PersistChunks is the chunk-persist primitive ProcessChunks and the book
	// creation path both use: given an ordered list of already-segmented chunk
	// seeds (subtitle-derived chunks for a video, or chapter bodies for a book), it
	// replaces the resource's chunk rows end to end. Lock-guarded per resource_id.
	PersistChunks(ctx context.Context, resourceID string, seeds []ChunkSeed) error

	// ReplaceChunkText wipes one chunk's stored text payload and rewrites it in
	// place, recomputing word/sentence counts. Used by
	// the book chapter-text-replace endpoint; never changes chunk_id or title.
	ReplaceChunkText(ctx context.Context, resourceID string, chunkID int, text string) error

	// ProcessEnrichment loads every chunk's text, runs the LLM enricher with
	// bounded concurrency, and writes back the AI fields. A failure on
	// one chunk does not stop the others. Lock-guarded per resource_id.
	ProcessEnrichment(ctx context.Context, resourceID string, kind domain.ResourceKind) error

	// ProcessFull runs ProcessMetadata, ProcessChunks, ProcessEnrichment in sequence
	// for a video. A failure in an earlier stage aborts later stages but leaves
	// earlier stages' state persisted.
	ProcessFull(ctx context.Context, urlOrID string) error

	// DeleteResource cascade-deletes a resource: its object-store payloads first,
	// then the resource row itself (chunk rows follow via the database's ON DELETE
	// CASCADE). The resource's note, if any, is left in place.
	// Lock-guarded per resource_id.
	DeleteResource(ctx context.Context, resourceID string) error
}

type orchestrator struct {
	log *logger.Logger

	fetcher   youtube.Fetcher
	extractor subtitles.Extractor
	chunkCfg  chunk.Config
	store     gcp.ObjectStore
	enricher  enrich.Enricher
	enrichCfg enrich.Config

	resources  repos.ResourceRepo
	chunks     repos.ChunkRepo
	promptSets repos.PromptSetRepo
	locks      *reslock.Keyed
}

// New wires the orchestrator over the components it composes.
func New(
	log *logger.Logger,
	fetcher youtube.Fetcher,
	extractor subtitles.Extractor,
	store gcp.ObjectStore,
	enricher enrich.Enricher,
	resources repos.ResourceRepo,
	chunks repos.ChunkRepo,
	promptSets repos.PromptSetRepo,
) Orchestrator {
	return &orchestrator{
		log:        log.With("service", "Orchestrator"),
		fetcher:    fetcher,
		extractor:  extractor,
		chunkCfg:   chunk.DefaultConfig(),
		store:      store,
		enricher:   enricher,
		enrichCfg:  enrich.DefaultConfig(),
		resources:  resources,
		chunks:     chunks,
		promptSets: promptSets,
		locks:      reslock.New(),
	}
}

func (o *orchestrator) ProcessMetadata(ctx context.Context, urlOrID string) (*domain.Resource, error) {
	videoID, err := youtube.ExtractVideoID(urlOrID)
	if err != nil {
		return nil, err
	}

	metas, err := o.fetcher.FetchMetadata(ctx, []string{videoID})
	if err != nil {
		return nil, err
	}
	if len(metas) == 0 {
		return nil, fmt.Errorf("%w: video %s", sentinel.ErrNotFound, videoID)
	}
	m := metas[0]

	res := &domain.Resource{
		ID:              m.ID,
		Kind:            domain.ResourceKindVideo,
		Title:           m.Title,
		AuthorOrChannel: m.ChannelTitle,
		ChannelID:       strPtr(m.ChannelID),
		Description:     strPtr(m.Description),
		DurationSeconds: intPtr(m.DurationSeconds),
		Tags:            tagsJSON(m.Tags),
		PublishedAt:     m.PublishedAt,
		Thumbnails:      datatypes.JSON(m.Thumbnails),
		ViewCount:       m.ViewCount,
		LikeCount:       m.LikeCount,
		CommentCount:    m.CommentCount,
		Localized:       datatypes.JSON(m.Localized),
	}

	dbc := dbctx.Context{Ctx: ctx}
	if err := o.resources.UpsertResource(dbc, res); err != nil {
		return nil, err
	}
	return o.resources.GetResource(dbc, res.ID)
}

func (o *orchestrator) ProcessChunks(ctx context.Context, videoID string) error {
	transcript, err := o.extractor.ExtractTranscript(ctx, videoID)
	if err != nil {
		return err
	}

	// A captionless video yields an empty transcript, which persists as an empty
	// chunk list rather than an error.
	pieces := chunk.Split(transcript, o.chunkCfg)
	seeds := make([]ChunkSeed, len(pieces))
	for i, p := range pieces {
		seeds[i] = ChunkSeed{Text: p.Text}
	}
	return o.PersistChunks(ctx, videoID, seeds)
}

// ChunkSeed is one chunk's input to PersistChunks: a text body plus an optional title.
// Title is empty for subtitle-derived video chunks (their short_title comes from
// enrichment); books supply the chapter_title their caller gave at creation time.
type ChunkSeed struct {
	Title string
	Text  string
}

// PersistChunks replaces a resource's chunk rows with one chunk per seed, in order,
// assigning chunk_ids 1..N. It always deletes the prior generation first (delete then
// recreate, never versioned in place) so a rerun never leaves chunks from a previous
// generation dangling at IDs beyond the new length. The object-store payloads are
// deleted before the chunk rows: text_ref existence implies a chunk row, so the row
// must never be dropped while its payload could still be orphaned.
func (o *orchestrator) PersistChunks(ctx context.Context, resourceID string, seeds []ChunkSeed) error {
	o.locks.Lock(resourceID)
	defer o.locks.Unlock(resourceID)

	dbc := dbctx.Context{Ctx: ctx}

	if err := o.store.DeleteAllForResource(ctx, resourceID); err != nil {
		return err
	}
	if err := o.chunks.DeleteChunksForResource(dbc, resourceID); err != nil {
		return err
	}
	if len(seeds) == 0 {
		return nil
	}

	rows := make([]*domain.Chunk, 0, len(seeds))
	for i, seed := range seeds {
		chunkID := i + 1
		ref, err := o.store.PutText(ctx, resourceID, chunkID, seed.Text)
		if err != nil {
			return err
		}
		rows = append(rows, &domain.Chunk{
			ResourceID:    resourceID,
			ChunkID:       chunkID,
			TextRef:       ref,
			ShortTitle:    seed.Title,
			WordCount:     wordCount(seed.Text),
			SentenceCount: sentenceCount(seed.Text),
		})
	}
	return o.chunks.UpsertChunkBatch(dbc, resourceID, rows)
}

// ReplaceChunkText rewrites a single chunk's stored text and recomputed metrics without
// touching its chunk_id or title, then reuses the object store's upsert-by-key write
// for the new payload.
func (o *orchestrator) ReplaceChunkText(ctx context.Context, resourceID string, chunkID int, text string) error {
	o.locks.Lock(resourceID)
	defer o.locks.Unlock(resourceID)

	dbc := dbctx.Context{Ctx: ctx}

	existing, err := o.chunks.GetChunk(dbc, resourceID, chunkID)
	if err != nil {
		return err
	}

	ref, err := o.store.PutText(ctx, resourceID, chunkID, text)
	if err != nil {
		return err
	}
	existing.TextRef = ref
	existing.WordCount = wordCount(text)
	existing.SentenceCount = sentenceCount(text)
	return o.chunks.UpsertChunkBatch(dbc, resourceID, []*domain.Chunk{existing})
}

func (o *orchestrator) ProcessEnrichment(ctx context.Context, resourceID string, kind domain.ResourceKind) error {
	o.locks.Lock(resourceID)
	defer o.locks.Unlock(resourceID)

	dbc := dbctx.Context{Ctx: ctx}

	chunkRows, err := o.chunks.ListChunks(dbc, resourceID)
	if err != nil {
		return err
	}
	if len(chunkRows) == 0 {
		return fmt.Errorf("%w: no chunks for resource %s", sentinel.ErrNotFound, resourceID)
	}

	promptRows, err := o.promptSets.ListPromptSetsForKind(dbc, kind)
	if err != nil {
		return err
	}
	prompts := enrich.PromptsForKind(promptRows, kind)

	inputs := make([]enrich.ChunkInput, 0, len(chunkRows))
	for _, c := range chunkRows {
		text, err := o.store.GetText(ctx, c.TextRef)
		if err != nil {
			o.log.Warn("could not load chunk text for enrichment", "resource_id", resourceID, "chunk_id", c.ChunkID, "error", err.Error())
			continue
		}
		inputs = append(inputs, enrich.ChunkInput{ChunkID: c.ChunkID, Text: text})
	}

	results, err := o.enricher.EnrichAll(ctx, inputs, prompts, o.enrichCfg)
	if err != nil {
		return err
	}

	for _, r := range results {
		fields := repos.ChunkFields{
			ShortTitle: strPtr(r.ShortTitle),
			AIField1:   strPtr(r.AIField1),
			AIField2:   strPtr(r.AIField2),
			AIField3:   strPtr(r.AIField3),
		}
		if err := o.chunks.UpdateChunkAIFields(dbc, resourceID, r.ChunkID, fields); err != nil {
			o.log.Warn("failed to persist enrichment result for chunk", "resource_id", resourceID, "chunk_id", r.ChunkID, "error", err.Error())
		}
	}
	return nil
}

func (o *orchestrator) DeleteResource(ctx context.Context, resourceID string) error {
	o.locks.Lock(resourceID)
	defer o.locks.Unlock(resourceID)

	if err := o.store.DeleteAllForResource(ctx, resourceID); err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	return o.resources.DeleteResource(dbc, resourceID)
}

func (o *orchestrator) ProcessFull(ctx context.Context, urlOrID string) error {
	res, err := o.ProcessMetadata(ctx, urlOrID)
	if err != nil {
		return fmt.Errorf("process metadata: %w", err)
	}
	if err := o.ProcessChunks(ctx, res.ID); err != nil {
		return fmt.Errorf("process chunks: %w", err)
	}
	if err := o.ProcessEnrichment(ctx, res.ID, domain.ResourceKindVideo); err != nil {
		return fmt.Errorf("process enrichment: %w", err)
	}
	return nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func intPtr(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

// tagsJSON encodes a video's tag list as the opaque JSON blob domain.Resource.Tags
// stores; an empty list is stored as nil rather than "[]" or "null".
func tagsJSON(tags []string) datatypes.JSON {
	if len(tags) == 0 {
		return nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// sentenceCount counts sentence-terminating punctuation runs; a pragmatic proxy, not a
// linguistic parse, matching the chunker's own boundary heuristic.
func sentenceCount(s string) int {
	count := 0
	prevTerminator := false
	for _, r := range s {
		isTerminator := r == '.' || r == '!' || r == '?'
		if isTerminator && !prevTerminator {
			count++
		}
		prevTerminator = isTerminator
	}
	if count == 0 && strings.TrimSpace(s) != "" {
		count = 1
	}
	return count
}
