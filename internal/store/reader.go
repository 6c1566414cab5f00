package store

import (
	"os"

	"github.com/parquet-go/parquet-go"

	archerrors "github.com/Aman-CERP/archive/internal/errors"
	"github.com/Aman-CERP/archive/internal/model"
)

// ReadConversation reads a conversation columnar file in one pass, yielding
// the Conversation from the first row and the Messages from every row,
// the first included (placeholder rows with an empty msg_id are skipped).
func ReadConversation(path string) (model.Conversation, []model.Message, error) {
	rows, err := readParquet[conversationRow](path)
	if err != nil {
		return model.Conversation{}, nil, err
	}
	if len(rows) == 0 {
		return model.Conversation{}, nil, archerrors.PersistError("empty_conversation_file", "conversation file has no rows: "+path, nil)
	}

	first := rows[0]
	conv := model.Conversation{
		ID:          first.ConvID,
		ProviderID:  first.ConvProviderID,
		Title:       first.ConvTitle,
		CreatedAt:   msToTime(first.ConvCreatedAt),
		UpdatedAt:   msToTime(first.ConvUpdatedAt),
		Model:       derefString(first.ConvModel),
		ProjectID:   derefString(first.ConvProjectID),
		ProjectName: derefString(first.ConvProjectName),
		IsArchived:  first.ConvIsArchived,
	}

	var messages []model.Message
	for _, row := range rows {
		if row.MsgID == "" {
			continue
		}
		content, err := decodeContent(row.MsgContentJSON)
		if err != nil {
			return conv, nil, archerrors.ParseError("message_content_decode_failed", err.Error(), err)
		}
		msg := model.Message{
			ID:             row.MsgID,
			ConversationID: conv.ID,
			ParentID:       derefString(row.MsgParentID),
			Role:           model.Role(row.MsgRole),
			Content:        content,
			Model:          derefString(row.MsgModel),
		}
		if row.MsgCreatedAt != nil {
			t := msToTime(*row.MsgCreatedAt)
			msg.CreatedAt = &t
		}
		messages = append(messages, msg)
	}

	return conv, messages, nil
}

// ReadEmbeddings reads an embedding columnar file (pre- or post-compaction).
func ReadEmbeddings(path string) ([]model.EmbeddingRow, error) {
	rows, err := readParquet[embeddingRow](path)
	if err != nil {
		return nil, err
	}
	out := make([]model.EmbeddingRow, len(rows))
	for i, r := range rows {
		vec := make([]float32, len(r.Embedding))
		copy(vec, r.Embedding[:])
		out[i] = model.EmbeddingRow{
			ChunkID:        r.ChunkID,
			ConversationID: r.ConversationID,
			MessageID:      r.MessageID,
			ChunkIndex:     r.ChunkIndex,
			Text:           r.Text,
			Embedding:      vec,
		}
	}
	return out, nil
}

func readParquet[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, archerrors.PersistError("open_failed", err.Error(), err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[T](f)
	defer reader.Close()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && n == 0 {
		return nil, archerrors.PersistError("read_failed", err.Error(), err)
	}
	return rows[:n], nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
