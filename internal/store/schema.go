package store

// EmbeddingDimensions is the reference embedding width. The embeddings
// columnar file schema fixes this at write time.
const EmbeddingDimensions = 384

// conversationRow is the on-disk row shape of a conversation columnar file.
// Conversation columns repeat identically across every row of the
// file; message columns vary per row. A conversation with no messages is
// written as a single row with MsgID empty ("placeholder row").
type conversationRow struct {
	ConvID          string  `parquet:"conv_id"`
	ConvProviderID  string  `parquet:"conv_provider_id"`
	ConvTitle       string  `parquet:"conv_title"`
	ConvCreatedAt   int64   `parquet:"conv_created_at,timestamp"`
	ConvUpdatedAt   int64   `parquet:"conv_updated_at,timestamp"`
	ConvModel       *string `parquet:"conv_model,optional"`
	ConvProjectID   *string `parquet:"conv_project_id,optional"`
	ConvProjectName *string `parquet:"conv_project_name,optional"`
	ConvIsArchived  bool    `parquet:"conv_is_archived"`
	MsgID           string  `parquet:"msg_id"`
	MsgParentID     *string `parquet:"msg_parent_id,optional"`
	MsgRole         string  `parquet:"msg_role"`
	MsgContentType  string  `parquet:"msg_content_type"`
	MsgContentJSON  string  `parquet:"msg_content_json"`
	MsgCreatedAt    *int64  `parquet:"msg_created_at,optional,timestamp"`
	MsgModel        *string `parquet:"msg_model,optional"`
}

// embeddingRow is the on-disk row shape of an embedding columnar file,
// both pre-compaction (one per conversation) and consolidated.
type embeddingRow struct {
	ChunkID        string                       `parquet:"chunk_id"`
	ConversationID string                       `parquet:"conversation_id"`
	MessageID      string                       `parquet:"message_id"`
	ChunkIndex     int32                        `parquet:"chunk_index"`
	Text           string                       `parquet:"text"`
	Embedding      [EmbeddingDimensions]float32 `parquet:"embedding"`
}
