// Package chunk splits message text into bounded, overlap-preserving,
// UTF-8-safe pieces suitable for embedding.
package chunk

import (
	"strings"
	"unicode/utf8"

	"github.com/Aman-CERP/archive/internal/model"
)

// Config controls chunk boundaries.
type Config struct {
	// MaxChunkChars is the maximum number of bytes per chunk (approximate
	// token count * 4).
	MaxChunkChars int
	// OverlapChars is the number of trailing bytes of each chunk that are
	// repeated at the start of the following chunk. It is also the width of
	// the window before the tentative end that is searched for a natural
	// break point.
	OverlapChars int
}

// DefaultConfig mirrors the reference configuration: ~256 tokens per chunk,
// ~32 tokens of overlap, at 4 chars/token.
func DefaultConfig() Config {
	return Config{
		MaxChunkChars: 1024,
		OverlapChars:  128,
	}
}

// Chunker splits message text into Chunks. It is immutable after
// construction and safe to share across pipeline workers.
type Chunker struct {
	cfg Config
}

// New creates a Chunker with the given configuration.
func New(cfg Config) *Chunker {
	return &Chunker{cfg: cfg}
}

// ChunkText splits a single string into a sequence of trimmed, non-empty
// chunks that contiguously cover the input (with overlaps), snapped to
// UTF-8 character boundaries.
func (c *Chunker) ChunkText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.cfg.MaxChunkChars {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := floorCharBoundary(text, min(start+c.cfg.MaxChunkChars, len(text)))

		chunkEnd := end
		if end < len(text) {
			chunkEnd = c.findBreakPoint(text, end)
		}

		piece := strings.TrimSpace(text[start:chunkEnd])
		if piece != "" {
			chunks = append(chunks, piece)
		}

		if chunkEnd >= len(text) {
			break
		}

		prevStart := start
		start = ceilCharBoundary(text, subOrZero(chunkEnd, c.cfg.OverlapChars))

		// Guarantee forward progress.
		if start <= prevStart {
			start = chunkEnd
		}
	}

	return chunks
}

// findBreakPoint searches the final OverlapChars bytes before maxEnd for a
// natural break, preferring paragraph > sentence > line > word boundaries.
func (c *Chunker) findBreakPoint(text string, maxEnd int) int {
	maxEnd = floorCharBoundary(text, maxEnd)
	searchStart := ceilCharBoundary(text, subOrZero(maxEnd, c.cfg.OverlapChars))
	search := text[searchStart:maxEnd]

	if pos := strings.LastIndex(search, "\n\n"); pos >= 0 {
		return searchStart + pos + 2
	}

	for i := len(search) - 1; i >= 0; i-- {
		ch := search[i]
		if ch != '.' && ch != '!' && ch != '?' {
			continue
		}
		nextIdx := searchStart + i + 1
		if nextIdx >= maxEnd {
			return nextIdx
		}
		if next, size := utf8.DecodeRuneInString(text[nextIdx:]); size > 0 && (next == ' ' || next == '\n') {
			return nextIdx
		}
	}

	if pos := strings.LastIndex(search, "\n"); pos >= 0 {
		return searchStart + pos + 1
	}

	if pos := strings.LastIndex(search, " "); pos >= 0 {
		return searchStart + pos + 1
	}

	return maxEnd
}

// ChunkMessage extracts text from a message's content and splits it into
// Chunks, tagging each with its index and the total chunk count.
func (c *Chunker) ChunkMessage(msg model.Message) []model.Chunk {
	text := model.ExtractText(msg.Content)
	pieces := c.ChunkText(text)

	chunks := make([]model.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = model.Chunk{
			Text:        p,
			MessageID:   msg.ID,
			ChunkIndex:  i,
			TotalChunks: len(pieces),
		}
	}
	return chunks
}

// ChunkMessages chunks every message in order, concatenating their chunks.
func (c *Chunker) ChunkMessages(messages []model.Message) []model.Chunk {
	var out []model.Chunk
	for _, m := range messages {
		out = append(out, c.ChunkMessage(m)...)
	}
	return out
}

func subOrZero(a, b int) int {
	if b > a {
		return 0
	}
	return a - b
}

// floorCharBoundary returns the nearest valid UTF-8 boundary at or before index.
func floorCharBoundary(s string, index int) int {
	if index >= len(s) {
		return len(s)
	}
	for index > 0 && !isBoundary(s, index) {
		index--
	}
	return index
}

// ceilCharBoundary returns the nearest valid UTF-8 boundary at or after index.
func ceilCharBoundary(s string, index int) int {
	if index >= len(s) {
		return len(s)
	}
	for index < len(s) && !isBoundary(s, index) {
		index++
	}
	return index
}

func isBoundary(s string, i int) bool {
	if i == 0 || i == len(s) {
		return true
	}
	return utf8.RuneStart(s[i])
}
