package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	archerrors "github.com/Aman-CERP/archive/internal/errors"
	"github.com/Aman-CERP/archive/internal/model"
)

// ConversationPath returns the canonical path for a provider/conversation's
// columnar conversation file.
func ConversationPath(dataDir, provider, conversationID string) string {
	return filepath.Join(dataDir, "conversations", provider, conversationID+".parquet")
}

// EmbeddingPath returns the canonical pre-compaction path for a
// provider/conversation's embedding file.
func EmbeddingPath(dataDir, provider, conversationID string) string {
	return filepath.Join(dataDir, "embeddings", provider, conversationID+".parquet")
}

// ConsolidatedEmbeddingPath returns the canonical post-compaction path for a
// provider's consolidated embedding file.
func ConsolidatedEmbeddingPath(dataDir, provider string) string {
	return filepath.Join(dataDir, "embeddings", provider+".parquet")
}

// WriteConversation writes a conversation and its messages to path as a
// single columnar file. An empty messages slice produces one placeholder
// row. The file is written to a .tmp sibling, fsynced, and renamed into
// place so no partial file is ever observable.
func WriteConversation(path string, conv model.Conversation, messages []model.Message) error {
	rows, err := buildConversationRows(conv, messages)
	if err != nil {
		return archerrors.PersistError("conversation_encode_failed", err.Error(), err)
	}
	return atomicWriteParquet(path, rows)
}

func buildConversationRows(conv model.Conversation, messages []model.Message) ([]conversationRow, error) {
	base := conversationRow{
		ConvID:          conv.ID,
		ConvProviderID:  conv.ProviderID,
		ConvTitle:       conv.Title,
		ConvCreatedAt:   conv.CreatedAt.UnixMilli(),
		ConvUpdatedAt:   conv.UpdatedAt.UnixMilli(),
		ConvModel:       optionalString(conv.Model),
		ConvProjectID:   optionalString(conv.ProjectID),
		ConvProjectName: optionalString(conv.ProjectName),
		ConvIsArchived:  conv.IsArchived,
	}

	if len(messages) == 0 {
		return []conversationRow{base}, nil
	}

	rows := make([]conversationRow, 0, len(messages))
	for _, m := range messages {
		contentJSON, err := encodeContent(m.Content)
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", m.ID, err)
		}

		row := base
		row.MsgID = m.ID
		row.MsgParentID = optionalString(m.ParentID)
		row.MsgRole = string(m.Role)
		row.MsgContentType = string(m.Content.Type)
		row.MsgContentJSON = contentJSON
		row.MsgModel = optionalString(m.Model)
		if m.CreatedAt != nil {
			ms := m.CreatedAt.UnixMilli()
			row.MsgCreatedAt = &ms
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteEmbeddings writes a set of embedding rows to path using the same
// write-tmp/fsync/rename discipline as WriteConversation.
func WriteEmbeddings(path string, rows []model.EmbeddingRow) error {
	out := make([]embeddingRow, len(rows))
	for i, r := range rows {
		var vec [EmbeddingDimensions]float32
		copy(vec[:], r.Embedding)
		out[i] = embeddingRow{
			ChunkID:        r.ChunkID,
			ConversationID: r.ConversationID,
			MessageID:      r.MessageID,
			ChunkIndex:     r.ChunkIndex,
			Text:           r.Text,
			Embedding:      vec,
		}
	}
	return atomicWriteParquet(path, out)
}

func atomicWriteParquet[T any](path string, rows []T) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return archerrors.PersistError("mkdir_failed", err.Error(), err)
	}

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return archerrors.PersistError("open_failed", err.Error(), err)
	}

	writer := parquet.NewGenericWriter[T](f, parquet.Compression(&parquet.Zstd))
	if _, err := writer.Write(rows); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return archerrors.PersistError("write_failed", err.Error(), err)
	}
	if err := writer.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return archerrors.PersistError("close_failed", err.Error(), err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return archerrors.PersistError("fsync_failed", err.Error(), err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return archerrors.PersistError("close_failed", err.Error(), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return archerrors.PersistError("rename_failed", err.Error(), err)
	}
	return nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
