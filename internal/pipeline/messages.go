// Package pipeline implements the three-stage ingest pipeline: fetch,
// media download, and chunk+embed+persist.
package pipeline

import "github.com/Aman-CERP/archive/internal/model"

// Fetched is the stage-1 input: one conversation with its full message list,
// ready for media resolution.
type Fetched struct {
	Provider     string
	Conversation model.Conversation
	Messages     []model.Message
}

// DownloadedAttachment records the outcome of resolving one attachment.
type DownloadedAttachment struct {
	Attachment model.Attachment
	LocalPath  string // empty if the download failed
	Err        error
}

// MediaDownloaded is the stage-2 output: a fetched conversation plus the
// outcome of resolving every attachment referenced by its messages.
type MediaDownloaded struct {
	Provider     string
	Conversation model.Conversation
	Messages     []model.Message
	Attachments  []DownloadedAttachment
}

// Complete reports a successfully persisted conversation.
type Complete struct {
	ConversationID string
	MessagesCount  int
	ChunksCount    int
}

// Error reports a per-conversation failure at a named stage. It does not
// abort the run; the orchestrator records it and continues.
type Error struct {
	ConversationID string
	Stage          string
	Message        string
}

// Result is a tagged union of a stage-3 output: either a Complete or an
// Error, never both.
type Result struct {
	Complete *Complete
	Error    *Error
}
