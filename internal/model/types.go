// Package model defines the core conversation-archive entities shared by
// the chunker, storage layer, pipeline, and query engine.
package model

import "time"

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ContentType tags a MessageContent variant.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentCode  ContentType = "code"
	ContentImage ContentType = "image"
	ContentAudio ContentType = "audio"
	ContentMixed ContentType = "mixed"
)

// MessageContent is a tagged variant holding exactly the fields for its Type.
// Mixed content holds an ordered sequence of non-Mixed parts.
type MessageContent struct {
	Type ContentType `json:"type"`

	Text string `json:"text,omitempty"`

	Language string `json:"language,omitempty"`
	Code     string `json:"code,omitempty"`

	URL string  `json:"url,omitempty"`
	Alt *string `json:"alt,omitempty"`

	Transcript *string `json:"transcript,omitempty"`

	Parts []MessageContent `json:"parts,omitempty"`
}

// Message belongs to a conversation and optionally to a parent message,
// forming a DAG rather than a strict tree.
type Message struct {
	ID             string
	ConversationID string
	ParentID       string
	Role           Role
	Content        MessageContent
	CreatedAt      *time.Time
	Model          string
}

// Conversation is identified by (ProviderID, ID).
type Conversation struct {
	ID          string
	ProviderID  string
	Title       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Model       string
	ProjectID   string
	ProjectName string
	IsArchived  bool
}

// Chunk is a piece of a message's extracted text, bounded in size.
type Chunk struct {
	Text        string
	MessageID   string
	ChunkIndex  int
	TotalChunks int
}

// EmbeddingRow is the persisted unit produced by embedding a Chunk.
type EmbeddingRow struct {
	ChunkID        string
	ConversationID string
	MessageID      string
	ChunkIndex     int32
	Text           string
	Embedding      []float32
}

// Attachment is a media file referenced by a message.
type Attachment struct {
	ID          string
	MessageID   string
	Filename    string
	MimeType    string
	SizeBytes   int64
	DownloadURL string
	LocalPath   string
}
