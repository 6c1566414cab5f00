package model

import "strings"

// ExtractText projects a MessageContent to a plain-text view suitable for
// chunking and snippet extraction.
func ExtractText(c MessageContent) string {
	switch c.Type {
	case ContentText:
		return c.Text
	case ContentCode:
		var b strings.Builder
		b.WriteString("```")
		b.WriteString(c.Language)
		b.WriteByte('\n')
		b.WriteString(c.Code)
		b.WriteString("\n```")
		return b.String()
	case ContentImage:
		if c.Alt != nil {
			return *c.Alt
		}
		return ""
	case ContentAudio:
		if c.Transcript != nil {
			return *c.Transcript
		}
		return ""
	case ContentMixed:
		parts := make([]string, 0, len(c.Parts))
		for _, p := range c.Parts {
			parts = append(parts, ExtractText(p))
		}
		return strings.Join(parts, "\n\n")
	default:
		return ""
	}
}
