package models

import (
	"strings"
	"time"
)

// Role IDs as seeded in the roles table
const (
	RoleTeacher     = 1
	RoleHeadTeacher = 2
	RolePrincipal   = 3
	RoleAdmin       = 4
)

type User struct {
	UserID        int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	Prefix        *string    `gorm:"column:prefix" json:"prefix,omitempty"`
	UserFname     string     `gorm:"column:user_fname" json:"user_fname"`
	UserLname     string     `gorm:"column:user_lname" json:"user_lname"`
	Email         string     `gorm:"column:email;unique" json:"email"`
	Password      string     `gorm:"column:password" json:"-"`
	RoleID        int        `gorm:"column:role_id" json:"role_id"`
	Department    string     `gorm:"column:department" json:"department"`
	Subject       *string    `gorm:"column:subject" json:"subject,omitempty"`
	Phone         *string    `gorm:"column:phone" json:"phone,omitempty"`
	AccountStatus string     `gorm:"column:account_status" json:"account_status"` // active|suspended
	CreateAt      *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt      *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt      *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Role Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

type Role struct {
	RoleID   int        `gorm:"primaryKey;column:role_id" json:"role_id"`
	Role     string     `gorm:"column:role" json:"role"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

func (Role) TableName() string {
	return "roles"
}

// DisplayName returns the user's full name with an optional prefix.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.UserFname + " " + u.UserLname)
	if u.Prefix != nil && strings.TrimSpace(*u.Prefix) != "" {
		return strings.TrimSpace(*u.Prefix) + " " + name
	}
	return name
}
