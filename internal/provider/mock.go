package provider

import (
	"context"
	"os"

	"github.com/Aman-CERP/archive/internal/model"
)

// MockProvider serves a fixed, in-memory set of conversations. It exists so
// the pipeline, query engine, and cmd/ entry point can be exercised without
// a real provider adapter, which is not implemented.
type MockProvider struct {
	id            ID
	conversations []model.Conversation
	messages      map[string][]model.Message
}

var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a MockProvider serving the given conversations and
// their messages, keyed by conversation id.
func NewMockProvider(id ID, conversations []model.Conversation, messages map[string][]model.Message) *MockProvider {
	return &MockProvider{id: id, conversations: conversations, messages: messages}
}

func (m *MockProvider) ID() ID { return m.id }

func (m *MockProvider) IsAuthenticated(_ context.Context) bool { return true }

func (m *MockProvider) Authenticate(_ context.Context) (Account, error) {
	return Account{ID: "mock-account", Provider: m.id, Email: "mock@example.com"}, nil
}

func (m *MockProvider) Account(_ context.Context) (Account, error) {
	return Account{ID: "mock-account", Provider: m.id, Email: "mock@example.com"}, nil
}

func (m *MockProvider) Conversations(_ context.Context) ([]model.Conversation, error) {
	return m.conversations, nil
}

func (m *MockProvider) Conversation(_ context.Context, id string) (model.Conversation, []model.Message, error) {
	for _, c := range m.conversations {
		if c.ID == id {
			return c, m.messages[id], nil
		}
	}
	return model.Conversation{}, nil, ErrAuthRequired
}

func (m *MockProvider) ProjectConversations(_ context.Context, projectID string) ([]model.Conversation, error) {
	var out []model.Conversation
	for _, c := range m.conversations {
		if c.ProjectID == projectID {
			out = append(out, c)
		}
	}
	return out, nil
}

// DownloadAttachment "downloads" by writing an empty placeholder file,
// since the mock has no real attachment bytes to fetch.
func (m *MockProvider) DownloadAttachment(_ context.Context, _ model.Attachment, localPath string) error {
	return os.WriteFile(localPath, nil, 0o644)
}
