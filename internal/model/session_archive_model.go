package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SessionArchive struct {
	Id                 uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId          string         `gorm:"type:varchar(64);uniqueIndex;not null"`
	UserId             string         `gorm:"type:varchar(64);not null;index"`
	Stage              string         `gorm:"type:varchar(32);not null"`
	RequirementSpec    datatypes.JSON `gorm:"type:jsonb"`
	RankedResults      datatypes.JSON `gorm:"type:jsonb"`
	FinalResponse      string         `gorm:"type:text"`
	LastError          string         `gorm:"type:text"`
	ClarificationCount int            `gorm:"not null;default:0"`
	NodeTrace          datatypes.JSON `gorm:"type:jsonb"`
	SessionCreatedAt   time.Time
	ArchivedAt         time.Time `gorm:"autoCreateTime;index"`
}

func (SessionArchive) TableName() string {
	return "session_archives"
}
