package models

import (
	"gorm.io/gorm"
)

// User is a registered account. Anonymous participants in open
// sessions never get a User row; accounts exist for workspace members.
type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Password string `gorm:"not null" json:"-"`
}
