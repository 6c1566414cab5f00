package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/archive/internal/chunk"
	"github.com/Aman-CERP/archive/internal/embed"
	archerrors "github.com/Aman-CERP/archive/internal/errors"
	"github.com/Aman-CERP/archive/internal/model"
	"github.com/Aman-CERP/archive/internal/store"
)

// fanOutEmbed starts n stage-3 workers under g and returns a WaitGroup that
// completes once all of them have drained in, mirroring fanOutMedia.
func fanOutEmbed(ctx context.Context, g *errgroup.Group, chunker *chunk.Chunker, embedder embed.Embedder, dataDir string, in <-chan MediaDownloaded, out chan<- Result, n int) *sync.WaitGroup {
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			defer wg.Done()
			runEmbed(ctx, chunker, embedder, dataDir, in, out)
			return nil
		})
	}
	return &wg
}

// runEmbed is the stage-3 worker body: chunk every message, embed the
// chunks in one batch, persist the conversation and embedding columnar
// files, and emit a Complete or Error result.
func runEmbed(ctx context.Context, chunker *chunk.Chunker, embedder embed.Embedder, dataDir string, in <-chan MediaDownloaded, out chan<- Result) {
	for md := range in {
		result := processConversation(ctx, chunker, embedder, dataDir, md)
		out <- result
	}
}

func processConversation(ctx context.Context, chunker *chunk.Chunker, embedder embed.Embedder, dataDir string, md MediaDownloaded) Result {
	chunks := chunker.ChunkMessages(md.Messages)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	var vectors [][]float32
	if len(texts) > 0 {
		var err error
		vectors, err = embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return errorResult(md.Conversation.ID, "embed", archerrors.EmbedError("embed_batch_failed", err.Error(), err).Error())
		}
	}

	convPath := store.ConversationPath(dataDir, md.Provider, md.Conversation.ID)
	if err := store.WriteConversation(convPath, md.Conversation, md.Messages); err != nil {
		return errorResult(md.Conversation.ID, "persist", err.Error())
	}

	if len(chunks) > 0 {
		rows := buildEmbeddingRows(md.Conversation.ID, chunks, vectors)
		embPath := store.EmbeddingPath(dataDir, md.Provider, md.Conversation.ID)
		if err := store.WriteEmbeddings(embPath, rows); err != nil {
			return errorResult(md.Conversation.ID, "persist", err.Error())
		}
	}

	return Result{Complete: &Complete{
		ConversationID: md.Conversation.ID,
		MessagesCount:  len(md.Messages),
		ChunksCount:    len(chunks),
	}}
}

func buildEmbeddingRows(conversationID string, chunks []model.Chunk, vectors [][]float32) []model.EmbeddingRow {
	rows := make([]model.EmbeddingRow, len(chunks))
	for i, c := range chunks {
		rows[i] = model.EmbeddingRow{
			ChunkID:        fmt.Sprintf("%s_%d", c.MessageID, c.ChunkIndex),
			ConversationID: conversationID,
			MessageID:      c.MessageID,
			ChunkIndex:     int32(c.ChunkIndex),
			Text:           c.Text,
			Embedding:      vectors[i],
		}
	}
	return rows
}

func errorResult(conversationID, stage, message string) Result {
	return Result{Error: &Error{ConversationID: conversationID, Stage: stage, Message: message}}
}
