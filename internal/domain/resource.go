package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ResourceKind tags a Resource as one of the two content kinds the pipeline accepts.
type ResourceKind string

const (
	ResourceKindVideo ResourceKind = "video"
	ResourceKindBook  ResourceKind = "book"
)

// Resource is the top-level ingestion unit: a YouTube video or a book. Its ID is a
// natural key (the 11-char YouTube ID, or a normalized book slug), never a surrogate UUID.
type Resource struct {
	ID              string       `gorm:"column:id;primaryKey" json:"id"`
	Kind            ResourceKind `gorm:"column:kind;not null;index" json:"kind"`
	Title           string       `gorm:"column:title;not null" json:"title"`
	AuthorOrChannel string       `gorm:"column:author_or_channel" json:"author_or_channel"`
	ChannelID       *string      `gorm:"column:channel_id;index" json:"channel_id,omitempty"`
	Publisher       *string      `gorm:"column:publisher" json:"publisher,omitempty"`
	Year            *int         `gorm:"column:year" json:"year,omitempty"`
	ISBN            *string      `gorm:"column:isbn" json:"isbn,omitempty"`
	Description     *string      `gorm:"column:description" json:"description,omitempty"`
	DurationSeconds *int         `gorm:"column:duration_seconds" json:"duration_seconds,omitempty"`

	// Tags is a free-form list; stored as an opaque JSON blob the way this codebase stores
	// Thumbnails/Metadata on MaterialChunk rather than a normalized join table.
	Tags datatypes.JSON `gorm:"column:tags" json:"tags,omitempty"`

	PublishedAt *time.Time     `gorm:"column:published_at" json:"published_at,omitempty"`
	Thumbnails  datatypes.JSON `gorm:"column:thumbnails" json:"thumbnails,omitempty"`

	ViewCount    *int64 `gorm:"column:view_count" json:"view_count,omitempty"`
	LikeCount    *int64 `gorm:"column:like_count" json:"like_count,omitempty"`
	CommentCount *int64 `gorm:"column:comment_count" json:"comment_count,omitempty"`

	// Localized is only populated when the source's default language isn't English.
	Localized datatypes.JSON `gorm:"column:localized" json:"localized,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Resource) TableName() string { return "resources" }
