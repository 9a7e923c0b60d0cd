package models

import (
	"gorm.io/gorm"
)

// Workspace groups a team's rooms, boards and velocity history.
// Membership replaces password protection on sessions that belong to
// a workspace.
type Workspace struct {
	gorm.Model
	Name    string `gorm:"not null" json:"name"`
	OwnerID uint   `gorm:"not null" json:"owner_id"`
}

// WorkspaceMember is one user's membership in one workspace.
type WorkspaceMember struct {
	gorm.Model
	WorkspaceID uint `gorm:"index:idx_workspace_user,unique" json:"workspace_id"`
	UserID      uint `gorm:"index:idx_workspace_user,unique" json:"user_id"`
}
