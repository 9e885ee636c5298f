package domain

// ChatMessage is a single line of a live consultation transcript.
type ChatMessage struct {
	ID         string `json:"id"`
	SessionID  string `json:"session_id"`
	SenderID   string `json:"sender_id"`
	SenderRole Role   `json:"sender_role"`
	Body       string `json:"body"`
}
