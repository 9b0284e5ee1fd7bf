package models

const (
	// MaxConversations is the number of conversation turns kept in memory.
	// Older turns are evicted first.
	MaxConversations = 200

	// MaxSummaryChars caps the rolling summary in characters (runes). New
	// content is appended and the overflow is trimmed from the end, never
	// from the front.
	MaxSummaryChars = 2000
)

// ConversationTurn is a single prompt/response exchange.
type ConversationTurn struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// MemoryDocument is the durable conversational state. It is persisted as a
// single encrypted JSON document and replaced wholesale on every write.
type MemoryDocument struct {
	Conversations []ConversationTurn `json:"conversations"`
	Summary       string             `json:"summary"`
}

// AppendTurn records a new exchange and trims history to the most recent
// MaxConversations entries.
func (m *MemoryDocument) AppendTurn(prompt, response string) {
	m.Conversations = append(m.Conversations, ConversationTurn{Prompt: prompt, Response: response})
	if len(m.Conversations) > MaxConversations {
		m.Conversations = m.Conversations[len(m.Conversations)-MaxConversations:]
	}
}

// AppendSummary appends a one-line summary to the rolling summary and trims
// trailing overflow beyond MaxSummaryChars. The cap counts runes, not bytes,
// so a multi-byte character is never split into invalid UTF-8.
func (m *MemoryDocument) AppendSummary(line string) {
	s := m.Summary
	if s != "" {
		s += " "
	}
	s += line
	if r := []rune(s); len(r) > MaxSummaryChars {
		s = string(r[:MaxSummaryChars])
	}
	m.Summary = s
}

// MemoryView is the safe external view of memory. It never includes raw
// conversation content.
type MemoryView struct {
	Summary            string `json:"summary"`
	ConversationsCount int    `json:"conversations_count"`
}
