package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	archerrors "github.com/Aman-CERP/archive/internal/errors"
	"github.com/Aman-CERP/archive/internal/model"
	"github.com/Aman-CERP/archive/internal/search"
)

// MessageHit is a full-text search result: a conversation and an excerpt of
// matching text.
type MessageHit struct {
	ConversationID string
	Snippet        string
}

// SemanticHit is a nearest-neighbor search result over embedding vectors.
type SemanticHit struct {
	ConversationID string
	MessageID      string
	ChunkText      string
	Score          float64 // distance; smaller is closer
}

// Engine answers FTS, semantic, and hybrid queries directly over the
// columnar conversation/embedding files via glob scans — there is no
// separate index to keep in sync.
type Engine struct {
	dataDir string
}

// NewEngine creates a query Engine rooted at dataDir.
func NewEngine(dataDir string) *Engine {
	return &Engine{dataDir: dataDir}
}

func (e *Engine) conversationGlob(provider string) string {
	if provider == "" {
		return filepath.Join(e.dataDir, "conversations", "*", "*.parquet")
	}
	return filepath.Join(e.dataDir, "conversations", provider, "*.parquet")
}

func (e *Engine) embeddingGlob() string {
	return filepath.Join(e.dataDir, "embeddings", "*", "*.parquet")
}

// ListAllConversations returns every conversation, distinct by id, ordered
// by updated_at descending.
func (e *Engine) ListAllConversations() ([]model.Conversation, error) {
	return e.listConversations("")
}

// ListConversationsByProvider returns conversations for a single provider,
// ordered by updated_at descending.
func (e *Engine) ListConversationsByProvider(provider string) ([]model.Conversation, error) {
	return e.listConversations(provider)
}

func (e *Engine) listConversations(provider string) ([]model.Conversation, error) {
	files, err := globFiles(e.conversationGlob(provider))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]model.Conversation, len(files))
	for _, f := range files {
		conv, _, err := ReadConversation(f)
		if err != nil {
			return nil, err
		}
		seen[conv.ID] = conv
	}

	out := make([]model.Conversation, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// GetMessages returns a conversation's messages sorted ascending by
// created_at, skipping placeholder rows.
func (e *Engine) GetMessages(provider, conversationID string) ([]model.Message, error) {
	path := ConversationPath(e.dataDir, provider, conversationID)
	_, messages, err := ReadConversation(path)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(messages, func(i, j int) bool {
		ti, tj := messages[i].CreatedAt, messages[j].CreatedAt
		if ti == nil || tj == nil {
			return false
		}
		return ti.Before(*tj)
	})
	return messages, nil
}

// CountConversations returns the number of distinct conversations across
// all providers.
func (e *Engine) CountConversations() (int, error) {
	convs, err := e.ListAllConversations()
	if err != nil {
		return 0, err
	}
	return len(convs), nil
}

// CountMessages returns the total number of messages across all
// conversation files.
func (e *Engine) CountMessages() (int, error) {
	files, err := globFiles(e.conversationGlob(""))
	if err != nil {
		return 0, err
	}
	total := 0
	for _, f := range files {
		_, messages, err := ReadConversation(f)
		if err != nil {
			return 0, err
		}
		total += len(messages)
	}
	return total, nil
}

// SearchMessages performs a case-insensitive substring search over message
// content, returning up to limit hits with a snippet of surrounding
// context.
func (e *Engine) SearchMessages(query string, limit int) ([]MessageHit, error) {
	files, err := globFiles(e.conversationGlob(""))
	if err != nil {
		return nil, err
	}

	lowerQuery := strings.ToLower(query)
	var hits []MessageHit

	for _, f := range files {
		_, messages, err := ReadConversation(f)
		if err != nil {
			return nil, err
		}
		for _, m := range messages {
			text := projectSearchableText(m.Content)
			lower := strings.ToLower(text)
			idx := strings.Index(lower, lowerQuery)
			if idx < 0 {
				continue
			}
			hits = append(hits, MessageHit{
				ConversationID: m.ConversationID,
				Snippet:        snippetAround(text, idx, len(query)),
			})
			if len(hits) >= limit {
				return hits, nil
			}
		}
	}
	return hits, nil
}

// projectSearchableText mirrors the plain-text projection used for
// snippet extraction: Text→text, Code→code, Mixed→space-joined
// text/code parts, other variants→raw content.
func projectSearchableText(c model.MessageContent) string {
	switch c.Type {
	case model.ContentText:
		return c.Text
	case model.ContentCode:
		return c.Code
	case model.ContentMixed:
		parts := make([]string, 0, len(c.Parts))
		for _, p := range c.Parts {
			if t := projectSearchableText(p); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, " ")
	default:
		encoded, err := encodeContent(c)
		if err != nil {
			return ""
		}
		return encoded
	}
}

func snippetAround(text string, matchIdx, matchLen int) string {
	const context = 40
	start := matchIdx - context
	prefix := ""
	if start < 0 {
		start = 0
	} else {
		prefix = "…"
	}

	end := matchIdx + matchLen + context
	suffix := ""
	if end >= len(text) {
		end = len(text)
	} else {
		suffix = "…"
	}

	return prefix + text[start:end] + suffix
}

// SearchSemantic performs an exact brute-force nearest-neighbor scan over
// every embedding file, returning the limit closest rows by L2 distance.
// Non-finite query or row vectors are treated as distance = +∞.
func (e *Engine) SearchSemantic(queryVec []float32, limit int) ([]SemanticHit, error) {
	files, err := globFiles(e.embeddingGlob())
	if err != nil {
		return nil, err
	}
	consolidated, err := globFiles(filepath.Join(e.dataDir, "embeddings", "*.parquet"))
	if err != nil {
		return nil, err
	}
	files = append(files, consolidated...)

	var hits []SemanticHit
	for _, f := range files {
		rows, err := ReadEmbeddings(f)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			hits = append(hits, SemanticHit{
				ConversationID: r.ConversationID,
				MessageID:      r.MessageID,
				ChunkText:      r.Text,
				Score:          l2Distance(r.Embedding, queryVec),
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score < hits[j].Score
		}
		return hits[i].ConversationID < hits[j].ConversationID
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func l2Distance(a []float32, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return math.Inf(1)
		}
		sum += d * d
	}
	dist := math.Sqrt(sum)
	if math.IsNaN(dist) {
		return math.Inf(1)
	}
	return dist
}

// SearchHybrid fuses full-text and semantic candidates via Reciprocal Rank
// Fusion (K=60), drawing 3x the requested limit from each side. If one
// side is empty, the other is returned directly (semantic-shaped, with
// score 0 for promoted FTS-only results). The two scans run concurrently.
func (e *Engine) SearchHybrid(ctx context.Context, query string, queryVec []float32, limit int) ([]SemanticHit, error) {
	fetchLimit := limit * 3

	var ftsHits []MessageHit
	var semanticHits []SemanticHit

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ftsHits, err = e.SearchMessages(query, fetchLimit)
		return err
	})
	g.Go(func() error {
		var err error
		semanticHits, err = e.SearchSemantic(queryVec, fetchLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, archerrors.Wrap("hybrid_search_failed", archerrors.KindInternal, err)
	}

	if len(ftsHits) == 0 {
		return truncateHits(semanticHits, limit), nil
	}
	if len(semanticHits) == 0 {
		return truncateHits(promoteFTS(ftsHits), limit), nil
	}

	ftsIDs := make([]string, len(ftsHits))
	for i, h := range ftsHits {
		ftsIDs[i] = h.ConversationID
	}
	semanticIDs := make([]string, len(semanticHits))
	for i, h := range semanticHits {
		semanticIDs[i] = h.ConversationID
	}

	fusion := search.NewRRFFusion()
	fused := fusion.Fuse(ftsIDs, semanticIDs, 1, 1)

	semanticByConv := make(map[string]SemanticHit, len(semanticHits))
	for _, h := range semanticHits {
		if _, ok := semanticByConv[h.ConversationID]; !ok {
			semanticByConv[h.ConversationID] = h
		}
	}

	out := make([]SemanticHit, 0, len(fused))
	for _, f := range fused {
		if h, ok := semanticByConv[f.ID]; ok {
			out = append(out, SemanticHit{
				ConversationID: f.ID,
				MessageID:      h.MessageID,
				ChunkText:      h.ChunkText,
				Score:          f.Score,
			})
			continue
		}
		out = append(out, SemanticHit{ConversationID: f.ID, Score: f.Score})
	}

	return truncateHits(out, limit), nil
}

func promoteFTS(hits []MessageHit) []SemanticHit {
	out := make([]SemanticHit, len(hits))
	for i, h := range hits {
		out[i] = SemanticHit{ConversationID: h.ConversationID, ChunkText: h.Snippet, Score: 0}
	}
	return out
}

func truncateHits(hits []SemanticHit, limit int) []SemanticHit {
	if len(hits) <= limit {
		return hits
	}
	return hits[:limit]
}

func globFiles(pattern string) ([]string, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, archerrors.PersistError("glob_failed", fmt.Sprintf("invalid glob %q: %v", pattern, err), err)
	}
	sort.Strings(files)
	return files, nil
}
