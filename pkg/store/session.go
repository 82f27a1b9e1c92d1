package store

import (
	"errors"
	"time"
)

// Stage is the coarse position of a session inside the buyer flow.
type Stage string

const (
	StageInitial             Stage = "initial"
	StageMediaProcessing     Stage = "media_processing"
	StageRequirementBuilding Stage = "requirement_building"
	StageClarifying          Stage = "clarifying"
	StageSearching           Stage = "searching"
	StageRanking             Stage = "ranking"
	StageCompleted           Stage = "completed"
	StageFailed              Stage = "failed"
	StageCancelled           Stage = "cancelled"
)

// Terminal reports whether no further workflow run can advance this stage.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed || s == StageCancelled
}

// SessionTTL is the absolute lifetime of a session record. Records older
// than this read as not found even if never deleted.
const SessionTTL = 24 * time.Hour

var (
	// ErrSessionNotFound is returned for unknown or expired sessions.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStoreUnavailable signals a transient persistence failure.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Session is one durable conversational thread. It is the single source of
// truth for session state across process instances; live sockets are only a
// local cache on top of it.
type Session struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Stage  Stage  `json:"stage"`

	RequirementSpec    *RequirementSpec  `json:"requirement_spec,omitempty"`
	RequirementHistory []RequirementSpec `json:"requirement_history,omitempty"`

	ClarificationCount int `json:"clarification_count"`

	LastMessage     string           `json:"last_message,omitempty"`
	Transcript      string           `json:"transcript,omitempty"`
	ImageAttributes *ImageAttributes `json:"image_attributes,omitempty"`
	SearchResults   *SearchResults   `json:"search_results,omitempty"`
	FinalResponse   string           `json:"final_response,omitempty"`
	LastError       string           `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession builds a fresh session in the initial stage with the full TTL.
func NewSession(sessionID, userID string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        sessionID,
		UserID:    userID,
		Stage:     StageInitial,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}
}

// Expired reports whether the record has outlived its TTL.
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().UTC().After(s.ExpiresAt)
}
