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

// NoteListFilter narrows ListNotes. A zero-value filter lists every note.
type NoteListFilter struct {
	Limit     int
	ChannelID *string
}

type NoteRepo interface {
	UpsertNote(dbc dbctx.Context, n *domain.Note) error
	GetNote(dbc dbctx.Context, resourceID string) (*domain.Note, error)
	DeleteNote(dbc dbctx.Context, resourceID string) error
	ListNotes(dbc dbctx.Context, filter NoteListFilter) ([]*domain.Note, error)
}

type noteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNoteRepo(db *gorm.DB, log *logger.Logger) NoteRepo {
	return &noteRepo{db: db, log: log.With("repo", "NoteRepo")}
}

var noteUpsertColumns = []string{"content", "custom_tags", "updated_at"}

// UpsertNote writes the resource-level study note, replacing content/custom_tags on
// conflict. It does not check that the resource still exists: a note legitimately
// outlives its resource (see domain.Note), so this repo never enforces that link.
func (r *noteRepo) UpsertNote(dbc dbctx.Context, n *domain.Note) error {
	if n == nil {
		return fmt.Errorf("%w: nil note", sentinel.ErrInvalidArgument)
	}
	if n.ResourceID == "" {
		return fmt.Errorf("%w: resource id required", sentinel.ErrInvalidArgument)
	}
	n.UpdatedAt = time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = n.UpdatedAt
	}
	return tx(dbc, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "resource_id"}},
		DoUpdates: clause.AssignmentColumns(noteUpsertColumns),
	}).Create(n).Error
}

func (r *noteRepo) GetNote(dbc dbctx.Context, resourceID string) (*domain.Note, error) {
	if resourceID == "" {
		return nil, fmt.Errorf("%w: resource id required", sentinel.ErrInvalidArgument)
	}
	var n domain.Note
	err := tx(dbc, r.db).Where("resource_id = ?", resourceID).First(&n).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: note %s", sentinel.ErrNotFound, resourceID)
		}
		return nil, err
	}
	return &n, nil
}

func (r *noteRepo) DeleteNote(dbc dbctx.Context, resourceID string) error {
	if resourceID == "" {
		return fmt.Errorf("%w: resource id required", sentinel.ErrInvalidArgument)
	}
	return tx(dbc, r.db).Where("resource_id = ?", resourceID).Delete(&domain.Note{}).Error
}

// ListNotes powers the "creator notes" view: when ChannelID is set it joins against
// resources to filter by channel, the one place this repo reaches across tables.
func (r *noteRepo) ListNotes(dbc dbctx.Context, filter NoteListFilter) ([]*domain.Note, error) {
	q := tx(dbc, r.db).Model(&domain.Note{})
	if filter.ChannelID != nil {
		q = q.Joins("JOIN resources ON resources.id = notes.resource_id").
			Where("resources.channel_id = ?", *filter.ChannelID)
	}
	q = q.Order("notes.updated_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var out []*domain.Note
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
