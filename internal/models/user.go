package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is an account that may apply for membership and pay fees.
// Authentication itself lives outside this service.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FirstName string         `gorm:"size:255" json:"first_name"`
	LastName  string         `gorm:"size:255" json:"last_name"`
	Admin     bool           `gorm:"default:false" json:"admin"`
	// Member is set once a membership fee has been paid.
	Member bool `gorm:"default:false" json:"member"`
	// MembershipNumber is unique and sequential; nil until granted.
	MembershipNumber *string `gorm:"uniqueIndex;size:50" json:"membership_number,omitempty"`

	MembershipApplications []MembershipApplication `gorm:"foreignKey:UserID" json:"-"`
	Payments               []Payment               `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsMemberOrAdmin() bool {
	return u.Member || u.Admin
}

// HasMembershipNumber reports whether a non-blank number is assigned.
func (u *User) HasMembershipNumber() bool {
	return u.MembershipNumber != nil && strings.TrimSpace(*u.MembershipNumber) != ""
}
