package pipeline

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/archive/internal/chunk"
	"github.com/Aman-CERP/archive/internal/config"
	"github.com/Aman-CERP/archive/internal/embed"
	"github.com/Aman-CERP/archive/internal/opindex"
	"github.com/Aman-CERP/archive/internal/provider"
)

// PipelineResult aggregates the outcome of one run across every conversation
// the feeder supplied.
type PipelineResult struct {
	ConversationsSynced   int
	MessagesProcessed     int
	AttachmentsDownloaded int
	EmbeddingsGenerated   int
	Errors                []Error
}

// Orchestrator wires the feeder and the three worker stages together with
// bounded channels and waits on every worker via errgroup.
type Orchestrator struct {
	cfg      *config.Config
	provider provider.Provider
	chunker  *chunk.Chunker
	embedder embed.Embedder
	idx      *opindex.Index
}

// New creates an Orchestrator from its collaborators. idx records
// per-attachment download progress so a re-run can skip attachments
// already fetched successfully.
func New(cfg *config.Config, p provider.Provider, embedder embed.Embedder, idx *opindex.Index) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		provider: p,
		chunker:  chunk.New(chunk.Config{MaxChunkChars: cfg.Chunker.MaxChunkChars, OverlapChars: cfg.Chunker.OverlapChars}),
		embedder: embedder,
		idx:      idx,
	}
}

// Run drains fetched, pumping it through media download and embed+persist
// workers, and returns the aggregated result. Worker counts and channel
// capacity come from the Orchestrator's Config.
func (o *Orchestrator) Run(ctx context.Context, fetched <-chan Fetched) (PipelineResult, error) {
	c1 := make(chan Fetched, o.cfg.ChannelCapacity)
	c2 := make(chan MediaDownloaded, o.cfg.ChannelCapacity)
	c3 := make(chan Result, o.cfg.ChannelCapacity)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(c1)
		for f := range fetched {
			select {
			case c1 <- f:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var attachmentsDownloaded int64

	n2 := o.cfg.MediaWorkers
	if n2 < 1 {
		n2 = 1
	}
	mediaDone := fanOutMedia(gctx, g, o.provider, o.idx, o.cfg.DataDir, c1, c2, n2, &attachmentsDownloaded)

	n3 := o.cfg.EmbedWorkers
	if n3 < 1 {
		n3 = 1
	}
	embedDone := fanOutEmbed(gctx, g, o.chunker, o.embedder, o.cfg.DataDir, c2, c3, n3)

	g.Go(func() error {
		mediaDone.Wait()
		close(c2)
		return nil
	})
	g.Go(func() error {
		embedDone.Wait()
		close(c3)
		return nil
	})

	result := PipelineResult{}
	g.Go(func() error {
		for r := range c3 {
			switch {
			case r.Complete != nil:
				result.ConversationsSynced++
				result.MessagesProcessed += r.Complete.MessagesCount
				result.EmbeddingsGenerated += r.Complete.ChunksCount
			case r.Error != nil:
				result.Errors = append(result.Errors, *r.Error)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return result, err
	}
	result.AttachmentsDownloaded = int(atomic.LoadInt64(&attachmentsDownloaded))
	return result, nil
}
