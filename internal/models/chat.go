package models

// Message roles recognized in a chat turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is a single role-tagged message in a chat turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the inbound chat payload: an ordered list of messages.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// LastUserContent returns the content of the most recent user-role message,
// scanning from the end. Empty string when no user message exists.
func (r *ChatRequest) LastUserContent() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

// ChatAction is a typed instruction returned alongside a reply. The server
// only constructs actions; the calling UI interprets them.
type ChatAction struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// ChatResponse is the outbound chat payload.
type ChatResponse struct {
	Reply   string       `json:"reply"`
	Actions []ChatAction `json:"actions"`
}
