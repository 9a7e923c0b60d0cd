package models

import (
	"time"
)

// Room is a planning poker session's durable record. Live state
// (participants, votes, the revealed flag) exists only in the session
// registry while someone is connected.
type Room struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	PasswordHash string    `json:"-"`
	WorkspaceID  *uint     `gorm:"index" json:"workspace_id,omitempty"`
	Sequence     []string  `gorm:"serializer:json" json:"sequence"`
	CreatedAt    time.Time `json:"created_at"`
}

// DefaultSequence is the voting sequence a room gets when the creator
// does not pick one.
var DefaultSequence = []string{"1", "2", "3", "5", "8", "13", "21", "?"}
