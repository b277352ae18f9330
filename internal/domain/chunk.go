package domain

import "time"

// Chunk is one ordered slice of a Resource's extracted text plus whatever enrichment
// the LLM pipeline has produced for it so far. It has no soft-delete column: a rechunk
// hard-deletes a resource's chunk rows and reinserts a fresh generation rather than
// versioning them in place.
type Chunk struct {
	ResourceID string `gorm:"column:resource_id;primaryKey" json:"resource_id"`
	ChunkID    int    `gorm:"column:chunk_id;primaryKey" json:"chunk_id"`

	TextRef string `gorm:"column:text_ref;not null" json:"text_ref"`

	ShortTitle string `gorm:"column:short_title" json:"short_title,omitempty"`
	AIField1   string `gorm:"column:ai_field_1" json:"ai_field_1,omitempty"`
	AIField2   string `gorm:"column:ai_field_2" json:"ai_field_2,omitempty"`
	AIField3   string `gorm:"column:ai_field_3" json:"ai_field_3,omitempty"`

	WordCount     int `gorm:"column:word_count;not null" json:"word_count"`
	SentenceCount int `gorm:"column:sentence_count;not null" json:"sentence_count"`

	NoteContent string `gorm:"column:note_content" json:"note_content,omitempty"`

	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Chunk) TableName() string { return "chunks" }
