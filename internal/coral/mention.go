package coral

import (
	"encoding/json"
	"strings"
)

// Mention is an inbound message addressed to this agent, carrying the thread
// and sender needed to address the reply. Mentions are transient: consumed
// once per loop iteration, never persisted.
type Mention struct {
	ThreadID string `json:"threadId"`
	SenderID string `json:"senderId"`
	Content  string `json:"content"`
}

// mentionPayload tolerates both camelCase and snake_case broker payloads.
type mentionPayload struct {
	ThreadID    string `json:"threadId"`
	ThreadIDAlt string `json:"thread_id"`
	SenderID    string `json:"senderId"`
	SenderIDAlt string `json:"sender_id"`
	Content     string `json:"content"`
	Message     string `json:"message"`
}

func (p mentionPayload) toMention() Mention {
	m := Mention{ThreadID: p.ThreadID, SenderID: p.SenderID, Content: p.Content}
	if m.ThreadID == "" {
		m.ThreadID = p.ThreadIDAlt
	}
	if m.SenderID == "" {
		m.SenderID = p.SenderIDAlt
	}
	if m.Content == "" {
		m.Content = p.Message
	}
	return m
}

// ParseMentions decodes the wait_for_mentions result text. The broker may
// return a JSON array, a single JSON object, or plain text. Plain text and
// timeout markers produce zero mentions rather than an error: the next wait
// call starts fresh.
func ParseMentions(text string) []Mention {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, "no new messages") || strings.Contains(lower, "timeout") {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var payloads []mentionPayload
		if err := json.Unmarshal([]byte(trimmed), &payloads); err == nil {
			mentions := make([]Mention, 0, len(payloads))
			for _, p := range payloads {
				if m := p.toMention(); m.ThreadID != "" || m.Content != "" {
					mentions = append(mentions, m)
				}
			}
			return mentions
		}
	}

	if strings.HasPrefix(trimmed, "{") {
		var p mentionPayload
		if err := json.Unmarshal([]byte(trimmed), &p); err == nil {
			if m := p.toMention(); m.ThreadID != "" || m.Content != "" {
				return []Mention{m}
			}
		}
	}

	// Unstructured payload: surface it as a mention with no thread. The loop
	// logs these instead of replying since a reply needs a thread.
	return []Mention{{Content: trimmed}}
}
