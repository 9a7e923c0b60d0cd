package models

import (
	"time"
)

// Board is a retrospective board's durable record.
type Board struct {
	ID                  string    `gorm:"primaryKey" json:"id"`
	Name                string    `gorm:"not null" json:"name"`
	PasswordHash        string    `json:"-"`
	WorkspaceID         *uint     `gorm:"index" json:"workspace_id,omitempty"`
	DefaultTimerSeconds int       `json:"default_timer_seconds"`
	CardsVisible        bool      `json:"cards_visible"`
	ShowAuthors         bool      `json:"show_authors"`
	CreatedAt           time.Time `json:"created_at"`
}

// Card is one retrospective note. The id is supplied by the client so
// optimistic UIs can render before the server acknowledges; a resubmit
// of the same id overwrites (last write wins).
type Card struct {
	ID         string   `gorm:"primaryKey" json:"id"`
	BoardID    string   `gorm:"index;not null" json:"board_id"`
	ColumnID   string   `gorm:"not null" json:"column_id"`
	Text       string   `json:"text"`
	AuthorName string   `json:"author_name"`
	Votes      []string `gorm:"serializer:json" json:"votes"`
	Position   int      `json:"position"`
}

const DefaultTimerSeconds = 600

// Retro board columns are a fixed set.
const (
	ColumnWentWell    = "went-well"
	ColumnToImprove   = "to-improve"
	ColumnActionItems = "action-items"
)

var BoardColumns = []string{ColumnWentWell, ColumnToImprove, ColumnActionItems}
