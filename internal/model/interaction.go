package model

import "time"

// Interaction is one completed OCR invocation: the stored artifact, the
// instruction that was sent to the engine, the engine's output, and the usage
// figures estimated at creation time. Rows are append-only; no field is ever
// updated after insert.
type Interaction struct {
	ID            int64     `json:"id"`
	Filename      string    `json:"filename"`
	Intent        string    `json:"intent"`
	Model         string    `json:"model"`
	Output        string    `json:"output"`
	InputTokens   int       `json:"input_tokens"`
	OutputTokens  int       `json:"output_tokens"`
	EstimatedCost float64   `json:"estimated_cost"`
	CreatedAt     time.Time `json:"created_at"`
}

// Chat message roles. The set is closed; the schema enforces it with a CHECK
// constraint.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a follow-up conversation attached to an
// Interaction. Turns are inserted in user/assistant pairs; creation order is
// conversation order.
type ChatMessage struct {
	ID            int64     `json:"id"`
	InteractionID int64     `json:"interaction_id"`
	Role          string    `json:"role"`
	Content       string    `json:"content"`
	Tokens        int       `json:"tokens"`
	Cost          float64   `json:"cost"`
	CreatedAt     time.Time `json:"created_at"`
}

// UsageStats is the derived aggregate over interactions and chat messages.
// It is computed from live rows on every call, never cached.
type UsageStats struct {
	TotalInteractions int     `json:"total_interactions"`
	TotalTokens       int64   `json:"total_tokens"`
	TotalCost         float64 `json:"total_cost"`
}
