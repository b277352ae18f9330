package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/chaptered/core/internal/data/repos"
	"github.com/chaptered/core/internal/domain"
	"github.com/chaptered/core/internal/orchestrator"
	"github.com/chaptered/core/internal/pkg/dbctx"
	sentinel "github.com/chaptered/core/internal/pkg/errors"
)

// Fakes shared across this package's handler tests: small, hand-written doubles over
// the object store, repos and orchestrator rather than a mocking framework, matching
// this codebase's test idiom.

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	} else {
		r = bytes.NewReader([]byte("{}"))
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func setParams(c *gin.Context, kv ...string) {
	for i := 0; i+1 < len(kv); i += 2 {
		c.Params = append(c.Params, gin.Param{Key: kv[i], Value: kv[i+1]})
	}
}

type fakeOrchestrator struct {
	mu         sync.Mutex
	resources  map[string]*domain.Resource
	chunks     map[string]map[int]*domain.Chunk
	deleted    []string
	processErr error
	chunksErr  error
	enrichErr  error
}

func newFakeOrchestrator() *fakeOrchestrator {
	return &fakeOrchestrator{
		resources: map[string]*domain.Resource{},
		chunks:    map[string]map[int]*domain.Chunk{},
	}
}

func (f *fakeOrchestrator) ProcessMetadata(_ context.Context, urlOrID string) (*domain.Resource, error) {
	if f.processErr != nil {
		return nil, f.processErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	res := &domain.Resource{ID: urlOrID, Kind: domain.ResourceKindVideo, Title: "Fetched: " + urlOrID}
	f.resources[res.ID] = res
	return res, nil
}

func (f *fakeOrchestrator) ProcessChunks(_ context.Context, _ string) error { return f.chunksErr }

func (f *fakeOrchestrator) PersistChunks(_ context.Context, resourceID string, seeds []orchestrator.ChunkSeed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := map[int]*domain.Chunk{}
	for i, s := range seeds {
		rows[i+1] = &domain.Chunk{ResourceID: resourceID, ChunkID: i + 1, ShortTitle: s.Title}
	}
	f.chunks[resourceID] = rows
	return nil
}

func (f *fakeOrchestrator) ReplaceChunkText(_ context.Context, resourceID string, chunkID int, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.chunks[resourceID][chunkID]; !ok {
		return fmt.Errorf("%w: chunk %s/%d", sentinel.ErrNotFound, resourceID, chunkID)
	}
	return nil
}

func (f *fakeOrchestrator) ProcessEnrichment(_ context.Context, _ string, _ domain.ResourceKind) error {
	return f.enrichErr
}

func (f *fakeOrchestrator) ProcessFull(_ context.Context, _ string) error { return nil }

func (f *fakeOrchestrator) DeleteResource(_ context.Context, resourceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.resources[resourceID]; !ok {
		return fmt.Errorf("%w: resource %s", sentinel.ErrNotFound, resourceID)
	}
	delete(f.resources, resourceID)
	delete(f.chunks, resourceID)
	f.deleted = append(f.deleted, resourceID)
	return nil
}

type fakeResourceRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Resource
}

func newFakeResourceRepo() *fakeResourceRepo {
	return &fakeResourceRepo{rows: map[string]*domain.Resource{}}
}

func (r *fakeResourceRepo) UpsertResource(_ dbctx.Context, res *domain.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *res
	r.rows[res.ID] = &cp
	return nil
}

func (r *fakeResourceRepo) GetResource(_ dbctx.Context, id string) (*domain.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: resource %s", sentinel.ErrNotFound, id)
	}
	cp := *res
	return &cp, nil
}

func (r *fakeResourceRepo) ListResources(_ dbctx.Context, filter repos.ResourceFilter) ([]*domain.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Resource
	for _, res := range r.rows {
		if filter.Kind != nil && res.Kind != *filter.Kind {
			continue
		}
		cp := *res
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeResourceRepo) ListResourcesByChannel(_ dbctx.Context, _ string) ([]*domain.Resource, error) {
	return nil, nil
}

func (r *fakeResourceRepo) DeleteResource(_ dbctx.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return fmt.Errorf("%w: resource %s", sentinel.ErrNotFound, id)
	}
	delete(r.rows, id)
	return nil
}

type fakeChunkRepo struct {
	mu           sync.Mutex
	rows         map[string]map[int]*domain.Chunk
	notes        map[string]map[int]string
	reorderCalls int
}

func newFakeChunkRepo() *fakeChunkRepo {
	return &fakeChunkRepo{rows: map[string]map[int]*domain.Chunk{}, notes: map[string]map[int]string{}}
}

func (r *fakeChunkRepo) seed(resourceID string, chunks ...*domain.Chunk) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rows[resourceID] == nil {
		r.rows[resourceID] = map[int]*domain.Chunk{}
	}
	for _, c := range chunks {
		cp := *c
		r.rows[resourceID][c.ChunkID] = &cp
	}
}

func (r *fakeChunkRepo) UpsertChunkBatch(_ dbctx.Context, resourceID string, chunks []*domain.Chunk) error {
	r.seed(resourceID, chunks...)
	return nil
}

func (r *fakeChunkRepo) DeleteChunksForResource(_ dbctx.Context, resourceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, resourceID)
	return nil
}

func (r *fakeChunkRepo) UpdateChunkAIFields(_ dbctx.Context, resourceID string, chunkID int, fields repos.ChunkFields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[resourceID][chunkID]
	if !ok {
		return fmt.Errorf("%w: chunk %s/%d", sentinel.ErrNotFound, resourceID, chunkID)
	}
	if fields.ShortTitle != nil {
		c.ShortTitle = *fields.ShortTitle
	}
	return nil
}

func (r *fakeChunkRepo) UpdateChunkNote(_ dbctx.Context, resourceID string, chunkID int, noteContent string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[resourceID][chunkID]; !ok {
		return fmt.Errorf("%w: chunk %s/%d", sentinel.ErrNotFound, resourceID, chunkID)
	}
	if r.notes[resourceID] == nil {
		r.notes[resourceID] = map[int]string{}
	}
	r.notes[resourceID][chunkID] = noteContent
	return nil
}

func (r *fakeChunkRepo) GetChunksIndex(_ dbctx.Context, resourceID string) ([]repos.ChunkIndexRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repos.ChunkIndexRow
	for i := 1; i <= len(r.rows[resourceID]); i++ {
		if c, ok := r.rows[resourceID][i]; ok {
			out = append(out, repos.ChunkIndexRow{ChunkID: c.ChunkID, ShortTitle: c.ShortTitle})
		}
	}
	return out, nil
}

func (r *fakeChunkRepo) GetChunksAIStatus(_ dbctx.Context, resourceID string, chunkID *int) ([]repos.ChunkAIStatusRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repos.ChunkAIStatusRow
	for i := 1; i <= len(r.rows[resourceID]); i++ {
		c, ok := r.rows[resourceID][i]
		if !ok {
			continue
		}
		if chunkID != nil && c.ChunkID != *chunkID {
			continue
		}
		out = append(out, repos.ChunkAIStatusRow{ChunkID: c.ChunkID, ShortTitle: c.ShortTitle, AIField1Present: c.AIField1 != ""})
	}
	return out, nil
}

func (r *fakeChunkRepo) GetChunk(_ dbctx.Context, resourceID string, chunkID int) (*domain.Chunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[resourceID][chunkID]
	if !ok {
		return nil, fmt.Errorf("%w: chunk %s/%d", sentinel.ErrNotFound, resourceID, chunkID)
	}
	cp := *c
	return &cp, nil
}

func (r *fakeChunkRepo) ListChunks(_ dbctx.Context, resourceID string) ([]*domain.Chunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Chunk
	for i := 1; i <= len(r.rows[resourceID]); i++ {
		if c, ok := r.rows[resourceID][i]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeChunkRepo) DeleteChunk(_ dbctx.Context, resourceID string, chunkID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[resourceID][chunkID]; !ok {
		return fmt.Errorf("%w: chunk %s/%d", sentinel.ErrNotFound, resourceID, chunkID)
	}
	delete(r.rows[resourceID], chunkID)
	return nil
}

func (r *fakeChunkRepo) ReorderChunks(_ dbctx.Context, _ string, _ []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reorderCalls++
	return nil
}

type fakeNoteRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Note
}

func newFakeNoteRepo() *fakeNoteRepo { return &fakeNoteRepo{rows: map[string]*domain.Note{}} }

func (r *fakeNoteRepo) UpsertNote(_ dbctx.Context, n *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.rows[n.ResourceID] = &cp
	return nil
}

func (r *fakeNoteRepo) GetNote(_ dbctx.Context, resourceID string) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.rows[resourceID]
	if !ok {
		return nil, fmt.Errorf("%w: note %s", sentinel.ErrNotFound, resourceID)
	}
	cp := *n
	return &cp, nil
}

func (r *fakeNoteRepo) DeleteNote(_ dbctx.Context, resourceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, resourceID)
	return nil
}

func (r *fakeNoteRepo) ListNotes(_ dbctx.Context, _ repos.NoteListFilter) ([]*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Note
	for _, n := range r.rows {
		cp := *n
		out = append(out, &cp)
	}
	return out, nil
}

type fakePromptSetRepo struct{}

func (fakePromptSetRepo) ListPromptSets(_ dbctx.Context) ([]domain.PromptSet, error) {
	return domain.SeedPromptSets(), nil
}

func (fakePromptSetRepo) ListPromptSetsForKind(_ dbctx.Context, kind domain.ResourceKind) ([]domain.PromptSet, error) {
	var out []domain.PromptSet
	for _, ps := range domain.SeedPromptSets() {
		if ps.ContentKind == kind {
			out = append(out, ps)
		}
	}
	return out, nil
}

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string]string
}

func newFakeObjectStore() *fakeObjectStore { return &fakeObjectStore{objects: map[string]string{}} }

func (s *fakeObjectStore) PutText(_ context.Context, resourceID string, chunkID int, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s/%d.txt", resourceID, chunkID)
	s.objects[key] = text
	return key, nil
}

func (s *fakeObjectStore) GetText(_ context.Context, ref string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.objects[ref]
	if !ok {
		return "", fmt.Errorf("%w: ref %s", sentinel.ErrNotFound, ref)
	}
	return text, nil
}

func (s *fakeObjectStore) DeleteText(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, ref)
	return nil
}

func (s *fakeObjectStore) DeleteAllForResource(_ context.Context, _ string) error { return nil }
