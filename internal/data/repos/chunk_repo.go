package repos

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chaptered/core/internal/domain"
	"github.com/chaptered/core/internal/pkg/dbctx"
	sentinel "github.com/chaptered/core/internal/pkg/errors"
	"github.com/chaptered/core/internal/pkg/logger"
)

// ChunkIndexRow is GetChunksIndex's lightweight listing shape.
type ChunkIndexRow struct {
	ChunkID    int       `json:"chunk_id"`
	ShortTitle string    `json:"short_title,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ChunkAIStatusRow is GetChunksAIStatus's polling shape: presence only, never the
// full enrichment text.
type ChunkAIStatusRow struct {
	ChunkID         int    `json:"chunk_id"`
	ShortTitle      string `json:"short_title,omitempty"`
	AIField1Present bool   `json:"ai_field_1_present"`
}

// ChunkFields is the set of per-field writes UpdateChunkAIFields may apply. A nil pointer
// leaves that column untouched; a non-nil pointer to an empty string is still a no-op
// (writes only non-empty fields, never clears).
type ChunkFields struct {
	ShortTitle *string
	AIField1   *string
	AIField2   *string
	AIField3   *string
}

type ChunkRepo interface {
	UpsertChunkBatch(dbc dbctx.Context, resourceID string, chunks []*domain.Chunk) error
	DeleteChunksForResource(dbc dbctx.Context, resourceID string) error
	UpdateChunkAIFields(dbc dbctx.Context, resourceID string, chunkID int, fields ChunkFields) error
	UpdateChunkNote(dbc dbctx.Context, resourceID string, chunkID int, noteContent string) error
	GetChunksIndex(dbc dbctx.Context, resourceID string) ([]ChunkIndexRow, error)
	GetChunksAIStatus(dbc dbctx.Context, resourceID string, chunkID *int) ([]ChunkAIStatusRow, error)
	GetChunk(dbc dbctx.Context, resourceID string, chunkID int) (*domain.Chunk, error)
	ListChunks(dbc dbctx.Context, resourceID string) ([]*domain.Chunk, error)
	DeleteChunk(dbc dbctx.Context, resourceID string, chunkID int) error
	// ReorderChunks applies a permutation of existing chunk_ids, densifying to
	// 1..len(order) while preserving the given order:
	// order[0] becomes chunk_id 1, order[1] becomes chunk_id 2, and so on. Runs in its
	// own transaction since a naive in-place update would collide with the composite
	// primary key mid-statement.
	ReorderChunks(dbc dbctx.Context, resourceID string, order []int) error
}

type chunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkRepo(db *gorm.DB, log *logger.Logger) ChunkRepo {
	return &chunkRepo{db: db, log: log.With("repo", "ChunkRepo")}
}

var chunkUpsertColumns = []string{
	"text_ref", "short_title", "ai_field_1", "ai_field_2", "ai_field_3",
	"word_count", "sentence_count", "note_content", "updated_at",
}

// UpsertChunkBatch inserts a fresh generation of chunks in one statement. Callers are
// expected to DeleteChunksForResource first when rechunking (delete then recreate,
// never versioned in place).
func (r *chunkRepo) UpsertChunkBatch(dbc dbctx.Context, resourceID string, chunks []*domain.Chunk) error {
	if resourceID == "" {
		return fmt.Errorf("%w: resource id required", sentinel.ErrInvalidArgument)
	}
	if len(chunks) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, c := range chunks {
		c.ResourceID = resourceID
		c.UpdatedAt = now
	}
	return tx(dbc, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "resource_id"}, {Name: "chunk_id"}},
		DoUpdates: clause.AssignmentColumns(chunkUpsertColumns),
	}).Create(&chunks).Error
}

func (r *chunkRepo) DeleteChunksForResource(dbc dbctx.Context, resourceID string) error {
	if resourceID == "" {
		return fmt.Errorf("%w: resource id required", sentinel.ErrInvalidArgument)
	}
	return tx(dbc, r.db).Where("resource_id = ?", resourceID).Delete(&domain.Chunk{}).Error
}

// UpdateChunkAIFields applies only the non-nil, non-empty fields given, leaving every
// other column (including previously written enrichment fields) untouched. A field
// that failed its LLM call and came back empty must never overwrite a prior success.
func (r *chunkRepo) UpdateChunkAIFields(dbc dbctx.Context, resourceID string, chunkID int, fields ChunkFields) error {
	if resourceID == "" {
		return fmt.Errorf("%w: resource id required", sentinel.ErrInvalidArgument)
	}
	updates := map[string]interface{}{}
	if fields.ShortTitle != nil && *fields.ShortTitle != "" {
		updates["short_title"] = *fields.ShortTitle
	}
	if fields.AIField1 != nil && *fields.AIField1 != "" {
		updates["ai_field_1"] = *fields.AIField1
	}
	if fields.AIField2 != nil && *fields.AIField2 != "" {
		updates["ai_field_2"] = *fields.AIField2
	}
	if fields.AIField3 != nil && *fields.AIField3 != "" {
		updates["ai_field_3"] = *fields.AIField3
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	res := tx(dbc, r.db).Model(&domain.Chunk{}).
		Where("resource_id = ? AND chunk_id = ?", resourceID, chunkID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: chunk %s/%d", sentinel.ErrNotFound, resourceID, chunkID)
	}
	return nil
}

// UpdateChunkNote writes a chunk's own note_content column (distinct from the
// resource-level Note row, which is a separate user-written document).
func (r *chunkRepo) UpdateChunkNote(dbc dbctx.Context, resourceID string, chunkID int, noteContent string) error {
	if resourceID == "" {
		return fmt.Errorf("%w: resource id required", sentinel.ErrInvalidArgument)
	}
	res := tx(dbc, r.db).Model(&domain.Chunk{}).
		Where("resource_id = ? AND chunk_id = ?", resourceID, chunkID).
		Updates(map[string]interface{}{
			"note_content": noteContent,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: chunk %s/%d", sentinel.ErrNotFound, resourceID, chunkID)
	}
	return nil
}

func (r *chunkRepo) GetChunksIndex(dbc dbctx.Context, resourceID string) ([]ChunkIndexRow, error) {
	if resourceID == "" {
		return nil, fmt.Errorf("%w: resource id required", sentinel.ErrInvalidArgument)
	}
	var rows []ChunkIndexRow
	err := tx(dbc, r.db).Model(&domain.Chunk{}).
		Select("chunk_id, short_title, updated_at").
		Where("resource_id = ?", resourceID).
		Order("chunk_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetChunksAIStatus reports presence only, never the enrichment text itself, so
// polling clients don't pull the full payload on every interval.
func (r *chunkRepo) GetChunksAIStatus(dbc dbctx.Context, resourceID string, chunkID *int) ([]ChunkAIStatusRow, error) {
	if resourceID == "" {
		return nil, fmt.Errorf("%w: resource id required", sentinel.ErrInvalidArgument)
	}
	q := tx(dbc, r.db).Model(&domain.Chunk{}).
		Select("chunk_id, short_title, ai_field_1").
		Where("resource_id = ?", resourceID)
	if chunkID != nil {
		q = q.Where("chunk_id = ?", *chunkID)
	}
	q = q.Order("chunk_id ASC")

	var raw []struct {
		ChunkID    int
		ShortTitle string
		AIField1   string `gorm:"column:ai_field_1"`
	}
	if err := q.Find(&raw).Error; err != nil {
		return nil, err
	}
	out := make([]ChunkAIStatusRow, 0, len(raw))
	for _, r := range raw {
		out = append(out, ChunkAIStatusRow{
			ChunkID:         r.ChunkID,
			ShortTitle:      r.ShortTitle,
			AIField1Present: r.AIField1 != "",
		})
	}
	return out, nil
}

func (r *chunkRepo) GetChunk(dbc dbctx.Context, resourceID string, chunkID int) (*domain.Chunk, error) {
	if resourceID == "" {
		return nil, fmt.Errorf("%w: resource id required", sentinel.ErrInvalidArgument)
	}
	var c domain.Chunk
	err := tx(dbc, r.db).Where("resource_id = ? AND chunk_id = ?", resourceID, chunkID).First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: chunk %s/%d", sentinel.ErrNotFound, resourceID, chunkID)
		}
		return nil, err
	}
	return &c, nil
}

func (r *chunkRepo) ListChunks(dbc dbctx.Context, resourceID string) ([]*domain.Chunk, error) {
	if resourceID == "" {
		return nil, fmt.Errorf("%w: resource id required", sentinel.ErrInvalidArgument)
	}
	var out []*domain.Chunk
	err := tx(dbc, r.db).Where("resource_id = ?", resourceID).Order("chunk_id ASC").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chunkRepo) DeleteChunk(dbc dbctx.Context, resourceID string, chunkID int) error {
	if resourceID == "" {
		return fmt.Errorf("%w: resource id required", sentinel.ErrInvalidArgument)
	}
	res := tx(dbc, r.db).Where("resource_id = ? AND chunk_id = ?", resourceID, chunkID).Delete(&domain.Chunk{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: chunk %s/%d", sentinel.ErrNotFound, resourceID, chunkID)
	}
	return nil
}

func (r *chunkRepo) ReorderChunks(dbc dbctx.Context, resourceID string, order []int) error {
	if resourceID == "" {
		return fmt.Errorf("%w: resource id required", sentinel.ErrInvalidArgument)
	}
	if len(order) == 0 {
		return nil
	}

	return tx(dbc, r.db).Transaction(func(txDB *gorm.DB) error {
		// Phase 1: move every row to a negative placeholder chunk_id so phase 2's
		// final assignment never collides with the composite primary key.
		for i, oldID := range order {
			placeholder := -(i + 1)
			res := txDB.Model(&domain.Chunk{}).
				Where("resource_id = ? AND chunk_id = ?", resourceID, oldID).
				Update("chunk_id", placeholder)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: chunk %s/%d", sentinel.ErrNotFound, resourceID, oldID)
			}
		}
		// Phase 2: densify placeholders into their final 1..N positions.
		now := time.Now().UTC()
		for i := range order {
			placeholder := -(i + 1)
			finalID := i + 1
			if err := txDB.Model(&domain.Chunk{}).
				Where("resource_id = ? AND chunk_id = ?", resourceID, placeholder).
				Updates(map[string]interface{}{"chunk_id": finalID, "updated_at": now}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
