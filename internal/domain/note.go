package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Note is the resource-level markdown study note, written by the user via POST /api/note.
// It is keyed by resource_id alone and survives a rechunk: nothing in the chunks
// pipeline touches the notes table. It also survives a resource delete as an orphan,
// since resource_id carries no database-enforced foreign key (see ensureConstraints);
// only an explicit note delete removes the row.
type Note struct {
	ResourceID string `gorm:"column:resource_id;primaryKey" json:"resource_id"`

	Content string `gorm:"column:content" json:"content"`

	CustomTags datatypes.JSON `gorm:"column:custom_tags" json:"custom_tags,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Note) TableName() string { return "notes" }
