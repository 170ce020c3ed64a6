package model

// Message roles, preserved verbatim between storage and the inference backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one role-tagged message fragment.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamRequest is the body accepted by the chat stream endpoint.
type StreamRequest struct {
	Message string `json:"message"`
}

// ChatDetail is the transcript view returned by the chat fetch endpoint.
type ChatDetail struct {
	Title    string        `json:"title"`
	Messages []ChatMessage `json:"messages"`
}

// RenameRequest is the body accepted by the chat rename endpoint.
type RenameRequest struct {
	Title string `json:"title"`
}
