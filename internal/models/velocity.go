package models

import (
	"gorm.io/gorm"
)

// VelocityEntry records one sprint's committed and completed story
// points for a workspace.
type VelocityEntry struct {
	gorm.Model
	WorkspaceID uint   `gorm:"index;not null" json:"workspace_id"`
	Sprint      string `gorm:"not null" json:"sprint"`
	Committed   int    `json:"committed"`
	Completed   int    `json:"completed"`
}
