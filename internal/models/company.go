package models

import "time"

// Company is a member business identified by its organisation number. It is
// only instantiated when a membership application for that number is accepted.
type Company struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Name          string    `gorm:"size:255" json:"name,omitempty"`
	CompanyNumber string    `gorm:"size:10;uniqueIndex;not null" json:"company_number"`
	PhoneNumber   string    `gorm:"size:50" json:"phone_number,omitempty"`
	Email         string    `gorm:"size:255" json:"email,omitempty"`
	Website       string    `gorm:"size:255" json:"website,omitempty"`
	Description   string    `gorm:"type:text" json:"description,omitempty"`

	MembershipApplications []MembershipApplication `gorm:"foreignKey:CompanyID" json:"-"`
}
