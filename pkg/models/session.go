package models

import "time"

// TurnRole identifies the speaker of a conversation turn.
type TurnRole string

const (
	TurnUser      TurnRole = "user"
	TurnAssistant TurnRole = "assistant"
)

// ConversationTurn is a single exchange entry in a session's history.
type ConversationTurn struct {
	Role      TurnRole  `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Preferences holds per-session settings that persist across turns unless
// overridden by the current request.
type Preferences struct {
	Style           string  `json:"style"`            // e.g. "professional", "casual", "bullets"
	TimeRange       string  `json:"time_range"`       // window preset name, e.g. "24h"
	ImpactThreshold float64 `json:"impact_threshold"` // [1,10]
}

// SessionState is the conversation state machine position.
type SessionState string

const (
	StateIdle            SessionState = "idle"
	StateAwaitingCompany SessionState = "awaiting_company"
	StateReady           SessionState = "ready"
)

// Session holds per-conversation state. History is bounded; the oldest turns
// are evicted first. The caller must serialize requests per session.
type Session struct {
	ID                  string             `json:"id"`
	State               SessionState       `json:"state"`
	History             []ConversationTurn `json:"history"`
	LastResolvedCompany string             `json:"last_resolved_company,omitempty"`
	Preferences         Preferences        `json:"preferences"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// QueryRequest is one user query against a session. Optional fields override
// session preferences for this turn only if set.
type QueryRequest struct {
	SessionID       string  `json:"session_id,omitempty"`
	UserInput       string  `json:"user_input"`
	Company         string  `json:"company,omitempty"`
	Style           string  `json:"style,omitempty"`
	TimeRange       string  `json:"time_range,omitempty"`
	ImpactThreshold float64 `json:"impact_threshold,omitempty"` // 0 means "use session preference"
}

// QueryResponse is the orchestrator's answer to one QueryRequest.
type QueryResponse struct {
	SessionID          string        `json:"session_id"`
	Text               string        `json:"text"`
	Bundle             *ResultBundle `json:"bundle,omitempty"`
	Company            string        `json:"company,omitempty"`
	NeedsClarification bool          `json:"needs_clarification"`
	Elapsed            time.Duration `json:"elapsed"`
}
