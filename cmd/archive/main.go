// Package main is a thin entry point that wires the archive's pipeline and
// query engine together for manual exercise. It runs one ingest pass over a
// small built-in mock conversation set, compacts the embeddings, then
// prints the hit count of one full-text query; semantic and hybrid search
// are not exercised here. Real provider adapters are not implemented;
// swap MockProvider for one to archive real accounts.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Aman-CERP/archive/internal/config"
	"github.com/Aman-CERP/archive/internal/embed"
	archerrors "github.com/Aman-CERP/archive/internal/errors"
	"github.com/Aman-CERP/archive/internal/logging"
	"github.com/Aman-CERP/archive/internal/model"
	"github.com/Aman-CERP/archive/internal/opindex"
	"github.com/Aman-CERP/archive/internal/pipeline"
	"github.com/Aman-CERP/archive/internal/provider"
	"github.com/Aman-CERP/archive/internal/store"
	"github.com/Aman-CERP/archive/pkg/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := logging.LevelFromString(cfg.Logging.Level)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	logger.Info("starting", "version", version.Short())

	ctx := context.Background()

	p := provider.NewMockProvider(provider.ID("mock"), sampleConversations(), sampleMessages())
	embedder := selectEmbedder(ctx, cfg)
	defer embedder.Close()

	idx, err := opindex.Open(opindex.Path(cfg.DataDir))
	if err != nil {
		return fmt.Errorf("opening operational index: %w", err)
	}
	defer idx.Close()

	orchestrator := pipeline.New(cfg, p, embedder, idx)

	conversations, _ := p.Conversations(ctx)
	var toSync []model.Conversation
	fetched := make(chan pipeline.Fetched, len(conversations))
	for _, conv := range conversations {
		needsSync, err := idx.NeedsSync(string(p.ID()), conv.ID, conv.UpdatedAt.UnixMilli())
		if err != nil {
			logger.Warn("sync state check failed", "conversation_id", conv.ID, "error", err)
			continue
		}
		if !needsSync {
			logger.Info("skipping unchanged conversation", "conversation_id", conv.ID)
			continue
		}

		_, messages, err := fetchConversation(ctx, p, conv.ID)
		if err != nil {
			logger.Warn("fetch failed", "conversation_id", conv.ID, "error", err)
			continue
		}
		fetched <- pipeline.Fetched{Provider: string(p.ID()), Conversation: conv, Messages: messages}
		toSync = append(toSync, conv)
	}
	close(fetched)

	result, err := orchestrator.Run(ctx, fetched)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}
	for _, conv := range toSync {
		_ = idx.UpsertSyncState(opindex.SyncState{
			ProviderID:          string(p.ID()),
			ConversationID:      conv.ID,
			LastSeenUpdatedAtMs: conv.UpdatedAt.UnixMilli(),
			SyncedAtMs:          time.Now().UnixMilli(),
		})
	}

	fmt.Printf("synced %d conversations, %d messages, %d embeddings, %d errors\n",
		result.ConversationsSynced, result.MessagesProcessed, result.EmbeddingsGenerated, len(result.Errors))
	for _, e := range result.Errors {
		fmt.Printf("  error: conversation=%s stage=%s message=%s\n", e.ConversationID, e.Stage, e.Message)
	}

	if _, err := store.NewCompactor(cfg.DataDir).Compact(string(p.ID())); err != nil {
		logger.Warn("compaction failed", "error", err)
	}

	engine := store.NewEngine(cfg.DataDir)
	hits, err := engine.SearchMessages("hello", 5)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	fmt.Printf("full-text search for \"hello\": %d hits\n", len(hits))
	for _, h := range hits {
		fmt.Printf("  %s: %s\n", h.ConversationID, h.Snippet)
	}

	return nil
}

// fetchConversation fetches one conversation's full history, retrying with
// backoff when the provider reports a network or rate-limit fault (the
// KindNetwork/KindRateLimited taxonomy in internal/errors). Any other error
// is returned after the first attempt since retrying it would not help.
func fetchConversation(ctx context.Context, p provider.Provider, id string) (model.Conversation, []model.Message, error) {
	conv, messages, err := p.Conversation(ctx, id)
	if err == nil || !archerrors.IsRetryable(err) {
		return conv, messages, err
	}

	type fetched struct {
		conv     model.Conversation
		messages []model.Message
	}
	f, err := archerrors.RetryWithResult(ctx, archerrors.DefaultRetryConfig(), func() (fetched, error) {
		c, m, err := p.Conversation(ctx, id)
		return fetched{conv: c, messages: m}, err
	})
	return f.conv, f.messages, err
}

// selectEmbedder picks the configured embedding backend. The HTTP backend
// is wired in behind the same interface but the mock is used when no
// Ollama host is configured, or the Ollama health probe fails, since there
// is no guarantee one is reachable during manual exercise.
func selectEmbedder(ctx context.Context, cfg *config.Config) embed.Embedder {
	if cfg.Embedder.Provider == "http" && cfg.Embedder.OllamaHost != "" {
		base, err := embed.NewOllamaEmbedder(ctx, embed.OllamaConfig{
			Host:       cfg.Embedder.OllamaHost,
			Model:      cfg.Embedder.OllamaModel,
			Dimensions: cfg.Embedder.Dim,
		})
		if err == nil {
			if cfg.Embedder.CacheSize > 0 {
				return embed.NewCachedEmbedder(base, cfg.Embedder.CacheSize)
			}
			return base
		}
	}
	return embed.NewMockEmbedder(cfg.Embedder.Dim)
}

func sampleConversations() []model.Conversation {
	now := time.Now()
	return []model.Conversation{
		{ID: "conv-1", ProviderID: "mock", Title: "hello world", CreatedAt: now, UpdatedAt: now},
		{ID: "conv-2", ProviderID: "mock", Title: "goodbye world", CreatedAt: now, UpdatedAt: now},
	}
}

func sampleMessages() map[string][]model.Message {
	now := time.Now()
	return map[string][]model.Message{
		"conv-1": {{
			ID:             "msg-1",
			ConversationID: "conv-1",
			Role:           model.RoleUser,
			Content:        model.MessageContent{Type: model.ContentText, Text: "hello, archive!"},
			CreatedAt:      &now,
		}},
		"conv-2": {{
			ID:             "msg-2",
			ConversationID: "conv-2",
			Role:           model.RoleAssistant,
			Content:        model.MessageContent{Type: model.ContentText, Text: "goodbye for now"},
			CreatedAt:      &now,
		}},
	}
}
