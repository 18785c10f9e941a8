package model

import "time"

// Chat roles recorded in a session history.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn of a session conversation.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session holds the per-connection state for one user: which files have been
// processed, whether an ingest is currently running, and the chat history.
// It is created at session start and destroyed when the session is cleared.
type Session struct {
	ID             string        `json:"id"`
	CreatedAt      time.Time     `json:"created_at"`
	FilesProcessed bool          `json:"files_processed"`
	Processing     bool          `json:"processing"`
	ChatHistory    []ChatMessage `json:"chat_history"`
}
