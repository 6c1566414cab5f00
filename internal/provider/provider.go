// Package provider defines the interface conversation-source backends
// (ChatGPT, Claude, etc.) implement, and the account/attachment types that
// cross that boundary.
package provider

import (
	"context"
	"errors"

	"github.com/Aman-CERP/archive/internal/model"
)

// Sentinel errors for the common provider-adapter failure modes; callers
// classify with errors.Is rather than string-matching.
var (
	ErrAuthRequired = errors.New("provider: authentication required")
	ErrTokenExpired = errors.New("provider: token expired")
)

// ID identifies a provider (e.g. "chatgpt", "claude").
type ID string

// Account describes the authenticated user of a provider.
type Account struct {
	ID        string
	Provider  ID
	Email     string
	Name      string
	AvatarURL string
}

// Attachment is a downloadable artifact attached to a message.
type Attachment = model.Attachment

// ProgressFunc reports progress for long-running provider operations
// (done, total).
type ProgressFunc func(done, total int)

// Provider is the interface every conversation-source backend implements.
// Implementations must be safe for concurrent use by multiple goroutines:
// the pipeline's stage-2 workers share one Provider.
type Provider interface {
	// ID returns the provider identifier.
	ID() ID

	// IsAuthenticated reports whether a usable credential is present.
	IsAuthenticated(ctx context.Context) bool

	// Authenticate performs the provider's login flow, persisting the
	// resulting credential.
	Authenticate(ctx context.Context) (Account, error)

	// Account returns the currently authenticated account.
	Account(ctx context.Context) (Account, error)

	// Conversations lists every conversation the account can see.
	Conversations(ctx context.Context) ([]model.Conversation, error)

	// Conversation fetches one conversation with its full message history.
	Conversation(ctx context.Context, id string) (model.Conversation, []model.Message, error)

	// ProjectConversations lists conversations scoped to a project.
	ProjectConversations(ctx context.Context, projectID string) ([]model.Conversation, error)

	// DownloadAttachment saves an attachment's content to localPath.
	DownloadAttachment(ctx context.Context, attachment model.Attachment, localPath string) error
}
