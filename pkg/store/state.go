package store

import "time"

// TurnInput is the normalized inbound user turn handed to the engine.
type TurnInput struct {
	SessionID string           `json:"session_id"`
	UserID    string           `json:"user_id"`
	Message   string           `json:"message"`
	Media     []MediaReference `json:"media,omitempty"`
	IsAnswer  bool             `json:"is_answer"`
}

// WorkflowState is the mutable in-flight context of one workflow run. It is
// owned by exactly one run, written into a checkpoint after every node, and
// discarded once the run completes, pauses or fails.
type WorkflowState struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Stage     Stage  `json:"stage"`

	Message   string           `json:"message"`
	MediaRefs []MediaReference `json:"media_refs,omitempty"`

	NeedStt    bool `json:"need_stt"`
	NeedVision bool `json:"need_vision"`

	Transcript      string           `json:"transcript,omitempty"`
	ImageAttributes *ImageAttributes `json:"image_attributes,omitempty"`

	RequirementSpec    *RequirementSpec  `json:"requirement_spec,omitempty"`
	RequirementHistory []RequirementSpec `json:"requirement_history,omitempty"`

	NeedsClarification  bool     `json:"needs_clarification"`
	ClarificationReason string   `json:"clarification_reason,omitempty"`
	ClarifyingQuestion  string   `json:"clarifying_question,omitempty"`
	ClarifySuggestions  []string `json:"clarify_suggestions,omitempty"`
	ClarificationCount  int      `json:"clarification_count"`

	RawResults    *SearchResults  `json:"raw_results,omitempty"`
	RankedResults []ProductResult `json:"ranked_results,omitempty"`
	FinalResponse string          `json:"final_response,omitempty"`

	Paused     bool     `json:"paused"`
	Error      string   `json:"error,omitempty"`
	NodeTrace  []string `json:"node_trace,omitempty"`
	RetryCount int      `json:"retry_count"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Checkpoint is a persisted snapshot of an in-flight run, written after each
// node. Next names the node the run would execute after the snapshot; an
// empty Next means the run ended (completed, paused or failed).
type Checkpoint struct {
	SessionID    string        `json:"session_id"`
	CheckpointID string        `json:"checkpoint_id"`
	Next         string        `json:"next"`
	State        WorkflowState `json:"state"`
	CreatedAt    time.Time     `json:"created_at"`
}
