package dto

import (
	"time"

	"ai-shopflow-be/pkg/store"
)

// SessionSummaryResponse is the read-only inspection view of a session.
type SessionSummaryResponse struct {
	SessionID          string                 `json:"session_id"`
	UserID             string                 `json:"user_id"`
	Stage              string                 `json:"stage"`
	ClarificationCount int                    `json:"clarification_count"`
	RequirementSpec    *store.RequirementSpec `json:"requirement_spec,omitempty"`
	ResultCount        int                    `json:"result_count"`
	FinalResponse      string                 `json:"final_response,omitempty"`
	LastError          string                 `json:"last_error,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
	ExpiresAt          time.Time              `json:"expires_at"`
}

// ArchiveResponse is one archived terminal session.
type ArchiveResponse struct {
	SessionID          string                 `json:"session_id"`
	UserID             string                 `json:"user_id"`
	Stage              string                 `json:"stage"`
	RequirementSpec    *store.RequirementSpec `json:"requirement_spec,omitempty"`
	RankedResults      []store.ProductResult  `json:"ranked_results,omitempty"`
	FinalResponse      string                 `json:"final_response,omitempty"`
	LastError          string                 `json:"last_error,omitempty"`
	ClarificationCount int                    `json:"clarification_count"`
	NodeTrace          []string               `json:"node_trace,omitempty"`
	SessionCreatedAt   time.Time              `json:"session_created_at"`
	ArchivedAt         time.Time              `json:"archived_at"`
}
