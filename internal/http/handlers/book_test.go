package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/chaptered/core/internal/domain"
	"github.com/chaptered/core/internal/pkg/dbctx"
)

func newTestBookHandler(t *testing.T) (*BookHandler, *fakeOrchestrator, *fakeResourceRepo, *fakeChunkRepo, *fakeObjectStore) {
	t.Helper()
	orc := newFakeOrchestrator()
	resources := newFakeResourceRepo()
	chunks := newFakeChunkRepo()
	store := newFakeObjectStore()
	h := NewBookHandler(newTestLogger(t), orc, resources, chunks, store)
	return h, orc, resources, chunks, store
}

func TestCreateBookStoresResourceAndChapters(t *testing.T) {
	h, orc, resources, _, _ := newTestBookHandler(t)

	body := []byte(`{"book_id":"b1","title":"Go in Practice","author":"Someone","chapters":[{"chapter_title":"Intro","chapter_text":"hello world"},{"chapter_title":"Deeper","chapter_text":"more text here"}]}`)
	c, w := newTestContext(http.MethodPost, "/api/book", body)
	h.CreateBook(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}

	stored := resources.rows["b1"]
	if stored == nil {
		t.Fatalf("expected resource b1 to be stored")
	}
	if stored.Kind != domain.ResourceKindBook {
		t.Fatalf("kind: want=book got=%s", stored.Kind)
	}

	// CreateBook persists chapters through the orchestrator's PersistChunks, not
	// through the repo directly.
	rows := orc.chunks["b1"]
	if len(rows) != 2 {
		t.Fatalf("chapter count: want=2 got=%d", len(rows))
	}
	if rows[1].ShortTitle != "Intro" || rows[2].ShortTitle != "Deeper" {
		t.Fatalf("unexpected chapter titles: %+v", rows)
	}
}

func TestGetBookRejectsNonBookResource(t *testing.T) {
	h, _, resources, _, _ := newTestBookHandler(t)
	resources.rows["v1"] = &domain.Resource{ID: "v1", Kind: domain.ResourceKindVideo}

	c, w := newTestContext(http.MethodGet, "/api/book/v1", nil)
	setParams(c, "book_id", "v1")
	h.GetBook(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status: want=404 got=%d body=%s", w.Code, w.Body.String())
	}
}

func TestListChaptersLoadsTextFromStore(t *testing.T) {
	h, _, resources, chunks, store := newTestBookHandler(t)
	resources.rows["b2"] = &domain.Resource{ID: "b2", Kind: domain.ResourceKindBook}
	ref, err := store.PutText(context.Background(), "b2", 1, "chapter body")
	if err != nil {
		t.Fatalf("PutText: %v", err)
	}
	chunks.seed("b2", &domain.Chunk{ResourceID: "b2", ChunkID: 1, ShortTitle: "One", TextRef: ref})

	c, w := newTestContext(http.MethodGet, "/api/book/b2/chapters", nil)
	setParams(c, "book_id", "b2")
	h.ListChapters(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	var got []chapterView
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ChapterText != "chapter body" {
		t.Fatalf("unexpected chapters: %+v", got)
	}
}

func TestRenameChapterUpdatesTitle(t *testing.T) {
	h, _, _, chunks, _ := newTestBookHandler(t)
	chunks.seed("b3", &domain.Chunk{ResourceID: "b3", ChunkID: 1, ShortTitle: "Old"})

	c, w := newTestContext(http.MethodPut, "/api/book/b3/chapter/1/title", []byte(`{"chapter_title":"New"}`))
	setParams(c, "book_id", "b3", "chapter_id", "1")
	h.RenameChapter(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	if chunks.rows["b3"][1].ShortTitle != "New" {
		t.Fatalf("title not updated: %+v", chunks.rows["b3"][1])
	}
}

func TestGetChapterRejectsNonIntegerChapterID(t *testing.T) {
	h, _, _, _, _ := newTestBookHandler(t)

	c, w := newTestContext(http.MethodGet, "/api/book/b4/chapter/abc", nil)
	setParams(c, "book_id", "b4", "chapter_id", "abc")
	h.GetChapter(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d body=%s", w.Code, w.Body.String())
	}
}

func TestDeleteChapterCleansUpObjectStore(t *testing.T) {
	h, _, _, chunks, store := newTestBookHandler(t)
	ref, _ := store.PutText(context.Background(), "b5", 1, "text")
	chunks.seed("b5", &domain.Chunk{ResourceID: "b5", ChunkID: 1, TextRef: ref})

	c, w := newTestContext(http.MethodDelete, "/api/book/b5/chapter/1", nil)
	setParams(c, "book_id", "b5", "chapter_id", "1")
	h.DeleteChapter(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	if _, err := chunks.GetChunk(dbctx.Context{Ctx: context.Background()}, "b5", 1); err == nil {
		t.Fatalf("expected chapter row to be gone")
	}
	if _, ok := store.objects[ref]; ok {
		t.Fatalf("expected object store payload to be removed")
	}
}

func TestReorderChaptersDelegatesToRepo(t *testing.T) {
	h, _, _, chunks, _ := newTestBookHandler(t)
	chunks.seed("b6", &domain.Chunk{ResourceID: "b6", ChunkID: 1}, &domain.Chunk{ResourceID: "b6", ChunkID: 2})

	c, w := newTestContext(http.MethodPost, "/api/book/b6/chapters/reorder", []byte(`{"chapter_order":[2,1]}`))
	setParams(c, "book_id", "b6")
	h.ReorderChapters(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	if chunks.reorderCalls != 1 {
		t.Fatalf("expected ReorderChunks to be called once, got %d", chunks.reorderCalls)
	}
}

func TestCreateBookNormalizesSlug(t *testing.T) {
	h, _, resources, _, _ := newTestBookHandler(t)

	body := []byte(`{"book_id":"My Book-2nd Edition","title":"T"}`)
	c, w := newTestContext(http.MethodPost, "/api/book", body)
	h.CreateBook(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	if resources.rows["my_book_2nd_edition"] == nil {
		t.Fatalf("expected slug to be normalized to my_book_2nd_edition, rows=%v", resources.rows)
	}
}

func TestCreateBookRejectsUnnormalizableSlug(t *testing.T) {
	h, _, _, _, _ := newTestBookHandler(t)

	c, w := newTestContext(http.MethodPost, "/api/book", []byte(`{"book_id":"!!!","title":"T"}`))
	h.CreateBook(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d body=%s", w.Code, w.Body.String())
	}
}
