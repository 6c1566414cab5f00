package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/archive/internal/model"
	"github.com/Aman-CERP/archive/internal/opindex"
	"github.com/Aman-CERP/archive/internal/provider"
)

// fanOutMedia starts n stage-2 workers under g, each draining in and
// sending to out, and returns a WaitGroup that completes once all of them
// have exited (used by the orchestrator to know when it is safe to close
// out). Every successful download increments attachmentsDownloaded.
func fanOutMedia(ctx context.Context, g *errgroup.Group, p provider.Provider, idx *opindex.Index, dataDir string, in <-chan Fetched, out chan<- MediaDownloaded, n int, attachmentsDownloaded *int64) *sync.WaitGroup {
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			defer wg.Done()
			runMedia(ctx, p, idx, dataDir, in, out, attachmentsDownloaded)
			return nil
		})
	}
	return &wg
}

// runMedia is the stage-2 worker body: for each input conversation, download
// every message's attachments into media/<provider>/<conv_id>/ and forward a
// MediaDownloaded. A single attachment's download failure is recorded
// per-attachment and does not drop the conversation.
func runMedia(ctx context.Context, p provider.Provider, idx *opindex.Index, dataDir string, in <-chan Fetched, out chan<- MediaDownloaded, attachmentsDownloaded *int64) {
	for f := range in {
		attachments := collectAttachments(f.Messages)
		downloaded := make([]DownloadedAttachment, 0, len(attachments))

		if len(attachments) > 0 {
			dir := filepath.Join(dataDir, "media", f.Provider, f.Conversation.ID)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				for _, a := range attachments {
					downloaded = append(downloaded, DownloadedAttachment{Attachment: a, Err: err})
				}
			} else {
				for _, a := range attachments {
					d := downloadOne(ctx, p, idx, a, dir)
					if d.Err == nil {
						atomic.AddInt64(attachmentsDownloaded, 1)
					}
					downloaded = append(downloaded, d)
				}
			}
		}

		out <- MediaDownloaded{
			Provider:     f.Provider,
			Conversation: f.Conversation,
			Messages:     f.Messages,
			Attachments:  downloaded,
		}
	}
}

// downloadOne resolves a single attachment, consulting idx first so an
// attachment already downloaded successfully in a prior run is not
// re-fetched, and records the outcome back to idx afterward.
func downloadOne(ctx context.Context, p provider.Provider, idx *opindex.Index, a model.Attachment, dir string) DownloadedAttachment {
	if state, found, err := idx.GetAttachmentState(a.ID); err == nil && found && state.Downloaded {
		return DownloadedAttachment{Attachment: a, LocalPath: state.LocalPath}
	}

	localPath := filepath.Join(dir, a.Filename)
	if err := p.DownloadAttachment(ctx, a, localPath); err != nil {
		_ = idx.UpsertAttachmentState(opindex.AttachmentState{
			AttachmentID: a.ID,
			MessageID:    a.MessageID,
			Downloaded:   false,
			Error:        err.Error(),
		})
		return DownloadedAttachment{Attachment: a, Err: err}
	}

	_ = idx.UpsertAttachmentState(opindex.AttachmentState{
		AttachmentID: a.ID,
		MessageID:    a.MessageID,
		Downloaded:   true,
		LocalPath:    localPath,
	})
	return DownloadedAttachment{Attachment: a, LocalPath: localPath}
}

func collectAttachments(messages []model.Message) []model.Attachment {
	var attachments []model.Attachment
	for _, m := range messages {
		attachments = append(attachments, attachmentsIn(m.ID, m.Content)...)
	}
	return attachments
}

// attachmentsIn surfaces the attachment implied by an image/audio content
// variant; Mixed content recurses into its parts. messageID identifies the
// owning message so attachment state can be tracked per-message.
func attachmentsIn(messageID string, c model.MessageContent) []model.Attachment {
	switch c.Type {
	case model.ContentImage, model.ContentAudio:
		if c.URL == "" {
			return nil
		}
		return []model.Attachment{{
			ID:          messageID + ":" + c.URL,
			MessageID:   messageID,
			Filename:    filepath.Base(c.URL),
			MimeType:    contentMimeType(c.Type),
			DownloadURL: c.URL,
		}}
	case model.ContentMixed:
		var out []model.Attachment
		for _, part := range c.Parts {
			out = append(out, attachmentsIn(messageID, part)...)
		}
		return out
	default:
		return nil
	}
}

func contentMimeType(t model.ContentType) string {
	switch t {
	case model.ContentImage:
		return "image/*"
	case model.ContentAudio:
		return "audio/*"
	default:
		return "application/octet-stream"
	}
}
