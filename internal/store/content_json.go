package store

import (
	"encoding/json"
	"fmt"

	"github.com/Aman-CERP/archive/internal/model"
)

// contentJSON mirrors the tagged-union wire shape of model.MessageContent. It is the
// serialization boundary between model.MessageContent and msg_content_json.
type contentJSON struct {
	Type       string        `json:"type"`
	Text       string        `json:"text,omitempty"`
	Language   string        `json:"language,omitempty"`
	Code       string        `json:"code,omitempty"`
	URL        string        `json:"url,omitempty"`
	Alt        *string       `json:"alt,omitempty"`
	Transcript *string       `json:"transcript,omitempty"`
	Parts      []contentJSON `json:"parts,omitempty"`
}

func encodeContent(c model.MessageContent) (string, error) {
	b, err := json.Marshal(toContentJSON(c))
	if err != nil {
		return "", fmt.Errorf("encode message content: %w", err)
	}
	return string(b), nil
}

func toContentJSON(c model.MessageContent) contentJSON {
	parts := make([]contentJSON, 0, len(c.Parts))
	for _, p := range c.Parts {
		parts = append(parts, toContentJSON(p))
	}
	return contentJSON{
		Type:       string(c.Type),
		Text:       c.Text,
		Language:   c.Language,
		Code:       c.Code,
		URL:        c.URL,
		Alt:        c.Alt,
		Transcript: c.Transcript,
		Parts:      parts,
	}
}

func decodeContent(raw string) (model.MessageContent, error) {
	var cj contentJSON
	if err := json.Unmarshal([]byte(raw), &cj); err != nil {
		return model.MessageContent{}, fmt.Errorf("decode message content: %w", err)
	}
	return fromContentJSON(cj), nil
}

func fromContentJSON(cj contentJSON) model.MessageContent {
	parts := make([]model.MessageContent, 0, len(cj.Parts))
	for _, p := range cj.Parts {
		parts = append(parts, fromContentJSON(p))
	}
	return model.MessageContent{
		Type:       model.ContentType(cj.Type),
		Text:       cj.Text,
		Language:   cj.Language,
		Code:       cj.Code,
		URL:        cj.URL,
		Alt:        cj.Alt,
		Transcript: cj.Transcript,
		Parts:      parts,
	}
}
