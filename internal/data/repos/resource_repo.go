// Package repos implements the metadata store: CRUD over Resources,
// Chunks, Notes and PromptSets, grounded on this codebase's repo idiom (dbctx.Context,
// clause.OnConflict upserts, one interface + unexported struct per table).
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

// ResourceFilter narrows ListResources. A zero-value filter lists everything.
type ResourceFilter struct {
	Kind      *domain.ResourceKind
	ChannelID *string
	Limit     int
}

type ResourceRepo interface {
	UpsertResource(dbc dbctx.Context, r *domain.Resource) error
	GetResource(dbc dbctx.Context, id string) (*domain.Resource, error)
	ListResources(dbc dbctx.Context, filter ResourceFilter) ([]*domain.Resource, error)
	ListResourcesByChannel(dbc dbctx.Context, channelID string) ([]*domain.Resource, error)
	DeleteResource(dbc dbctx.Context, id string) error
}

type resourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResourceRepo(db *gorm.DB, log *logger.Logger) ResourceRepo {
	return &resourceRepo{db: db, log: log.With("repo", "ResourceRepo")}
}

func tx(dbc dbctx.Context, db *gorm.DB) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return db.WithContext(dbc.Ctx)
}

var resourceUpsertColumns = []string{
	"kind", "title", "author_or_channel", "channel_id", "publisher", "year", "isbn",
	"description", "duration_seconds", "tags", "published_at", "thumbnails",
	"view_count", "like_count", "comment_count", "localized", "updated_at",
}

// UpsertResource writes a resource row, replacing every field on conflict.
// updated_at is also maintained by the DB-side trigger; setting
// it here keeps the in-memory row consistent with what gets persisted.
func (r *resourceRepo) UpsertResource(dbc dbctx.Context, res *domain.Resource) error {
	if res == nil {
		return fmt.Errorf("%w: nil resource", sentinel.ErrInvalidArgument)
	}
	if res.ID == "" {
		return fmt.Errorf("%w: resource id required", sentinel.ErrInvalidArgument)
	}
	res.UpdatedAt = time.Now().UTC()
	if res.CreatedAt.IsZero() {
		res.CreatedAt = res.UpdatedAt
	}
	return tx(dbc, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(resourceUpsertColumns),
	}).Create(res).Error
}

func (r *resourceRepo) GetResource(dbc dbctx.Context, id string) (*domain.Resource, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: resource id required", sentinel.ErrInvalidArgument)
	}
	var res domain.Resource
	err := tx(dbc, r.db).Where("id = ?", id).First(&res).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: resource %s", sentinel.ErrNotFound, id)
		}
		return nil, err
	}
	return &res, nil
}

func (r *resourceRepo) ListResources(dbc dbctx.Context, filter ResourceFilter) ([]*domain.Resource, error) {
	q := tx(dbc, r.db).Model(&domain.Resource{})
	if filter.Kind != nil {
		q = q.Where("kind = ?", *filter.Kind)
	}
	if filter.ChannelID != nil {
		q = q.Where("channel_id = ?", *filter.ChannelID)
	}
	q = q.Order("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var out []*domain.Resource
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *resourceRepo) ListResourcesByChannel(dbc dbctx.Context, channelID string) ([]*domain.Resource, error) {
	if channelID == "" {
		return nil, fmt.Errorf("%w: channel_id required", sentinel.ErrInvalidArgument)
	}
	return r.ListResources(dbc, ResourceFilter{ChannelID: &channelID})
}

// DeleteResource hard-deletes the resource row; the chunks FK is ON DELETE CASCADE
// (migration-level), so chunk rows disappear without a second query. The resource's
// note, if any, is left in place and becomes orphaned: notes.resource_id carries no
// database-enforced foreign key (see ensureConstraints), so the delete never fails or
// cascades because of it.
func (r *resourceRepo) DeleteResource(dbc dbctx.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: resource id required", sentinel.ErrInvalidArgument)
	}
	res := tx(dbc, r.db).Where("id = ?", id).Delete(&domain.Resource{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: resource %s", sentinel.ErrNotFound, id)
	}
	return nil
}
