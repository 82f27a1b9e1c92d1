package entity

import (
	"time"

	"github.com/google/uuid"

	"ai-shopflow-be/pkg/store"
)

// SessionArchive is the durable record of a session that reached a terminal
// stage. The requirement spec and ranked results are kept whole.
type SessionArchive struct {
	Id                 uuid.UUID
	SessionId          string
	UserId             string
	Stage              store.Stage
	RequirementSpec    *store.RequirementSpec
	RankedResults      []store.ProductResult
	FinalResponse      string
	LastError          string
	ClarificationCount int
	NodeTrace          []string
	SessionCreatedAt   time.Time
	ArchivedAt         time.Time
}
