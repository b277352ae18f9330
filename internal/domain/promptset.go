package domain

import "time"

// PromptField is one of the four LLM-produced fields a PromptSet supplies a template for.
type PromptField string

const (
	PromptFieldShortTitle PromptField = "short_title"
	PromptFieldAIField1   PromptField = "ai_field_1"
	PromptFieldAIField2   PromptField = "ai_field_2"
	PromptFieldAIField3   PromptField = "ai_field_3"
)

// PromptSet row is keyed by (content_kind, field_name); Template holds a single "{text}"
// substitution site. Rows are seeded once by the migration and treated as read-only
// process-wide configuration after that — nothing in this module writes to this table
// at runtime.
type PromptSet struct {
	ContentKind ResourceKind `gorm:"column:content_kind;primaryKey" json:"content_kind"`
	FieldName   PromptField  `gorm:"column:field_name;primaryKey" json:"field_name"`

	Template    string `gorm:"column:template;not null" json:"template"`
	Description string `gorm:"column:description" json:"description"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (PromptSet) TableName() string { return "prompt_sets" }

// SeedPromptSets is the fixed set of templates loaded at startup for both content kinds.
// Wording differs between video and book; the four field names and their
// ordering are otherwise identical.
func SeedPromptSets() []PromptSet {
	return []PromptSet{
		{ContentKind: ResourceKindVideo, FieldName: PromptFieldShortTitle,
			Description: "A short title for this video segment",
			Template:    "Write a short title (no more than 10 words) for this video segment:\n\n{text}"},
		{ContentKind: ResourceKindVideo, FieldName: PromptFieldAIField1,
			Description: "Bullet-point summary of the video segment",
			Template:    "Summarize this video segment as a short list of bullet points:\n\n{text}"},
		{ContentKind: ResourceKindVideo, FieldName: PromptFieldAIField2,
			Description: "Topics and themes covered in the video segment",
			Template:    "List the main topics and themes covered in this video segment:\n\n{text}"},
		{ContentKind: ResourceKindVideo, FieldName: PromptFieldAIField3,
			Description: "Key takeaways from the video segment",
			Template:    "What are the key takeaways a viewer should remember from this video segment?\n\n{text}"},

		{ContentKind: ResourceKindBook, FieldName: PromptFieldShortTitle,
			Description: "A short title for this book chapter section",
			Template:    "Write a short title (no more than 10 words) for this book chapter section:\n\n{text}"},
		{ContentKind: ResourceKindBook, FieldName: PromptFieldAIField1,
			Description: "Concepts with brief explanations from the chapter section",
			Template:    "List the concepts introduced in this book chapter section, each with a brief explanation:\n\n{text}"},
		{ContentKind: ResourceKindBook, FieldName: PromptFieldAIField2,
			Description: "Topics and themes covered in the chapter section",
			Template:    "List the main topics and themes covered in this book chapter section:\n\n{text}"},
		{ContentKind: ResourceKindBook, FieldName: PromptFieldAIField3,
			Description: "Key insights and lessons from the chapter section",
			Template:    "What are the key insights or lessons a reader should take from this book chapter section?\n\n{text}"},
	}
}
