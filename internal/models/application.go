package models

import "time"

// ApplicationState is the review state of a membership application.
type ApplicationState string

const (
	StateNew                 ApplicationState = "new"
	StateUnderReview         ApplicationState = "under_review"
	StateWaitingForApplicant ApplicationState = "waiting_for_applicant"
	StateReadyForReview      ApplicationState = "ready_for_review"
	StateAccepted            ApplicationState = "accepted"
	StateRejected            ApplicationState = "rejected"
)

// Decided reports whether the state is accepted or rejected.
func (s ApplicationState) Decided() bool {
	return s == StateAccepted || s == StateRejected
}

// MembershipApplication is one applicant's request to join on behalf of a
// company. CompanyID stays nil until the application is accepted.
type MembershipApplication struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint  `gorm:"not null;index;uniqueIndex:idx_application_user_company,priority:1" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"-"`

	CompanyNumber string           `gorm:"size:10;not null;uniqueIndex:idx_application_user_company,priority:2" json:"company_number"`
	PhoneNumber   string           `gorm:"size:50" json:"phone_number,omitempty"`
	ContactEmail  string           `gorm:"size:255;not null" json:"contact_email"`
	State         ApplicationState `gorm:"size:40;not null;default:'new';index" json:"state"`

	CompanyID *uint    `gorm:"index" json:"company_id,omitempty"`
	Company   *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`

	WaitingReasonID  *uint          `gorm:"column:member_app_waiting_reasons_id;index" json:"waiting_reason_id,omitempty"`
	WaitingReason    *WaitingReason `gorm:"foreignKey:WaitingReasonID" json:"waiting_reason,omitempty"`
	CustomReasonText string         `gorm:"size:500" json:"custom_reason_text,omitempty"`

	UploadedFiles      []UploadedFile     `gorm:"foreignKey:MembershipApplicationID" json:"uploaded_files,omitempty"`
	BusinessCategories []BusinessCategory `gorm:"many2many:business_categories_membership_applications;" json:"business_categories,omitempty"`
}

// GetUserID implements the Ownable interface.
func (a *MembershipApplication) GetUserID() uint {
	return a.UserID
}

// UploadedFile is a supporting document attached to an application. The blob
// itself lives in a file store under StorageKey.
type UploadedFile struct {
	ID                      uint      `gorm:"primaryKey" json:"id"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
	MembershipApplicationID uint      `gorm:"index;not null" json:"membership_application_id"`
	FileName                string    `gorm:"column:actual_file_file_name;size:255" json:"file_name"`
	ContentType             string    `gorm:"column:actual_file_content_type;size:100" json:"content_type"`
	FileSize                int64     `gorm:"column:actual_file_file_size" json:"file_size"`
	StorageKey              string    `gorm:"size:64;uniqueIndex" json:"-"`
}

// BusinessCategory classifies what kind of business an applicant runs.
type BusinessCategory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"size:255;uniqueIndex" json:"name"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
}

// WaitingReason explains why review is waiting on the applicant.
type WaitingReason struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	NameSV        string    `gorm:"column:name_sv;size:255" json:"name_sv"`
	DescriptionSV string    `gorm:"column:description_sv;size:500" json:"description_sv,omitempty"`
	NameEN        string    `gorm:"column:name_en;size:255" json:"name_en"`
	DescriptionEN string    `gorm:"column:description_en;size:500" json:"description_en,omitempty"`
	IsCustom      bool      `gorm:"not null;default:false" json:"is_custom"`
}

func (WaitingReason) TableName() string { return "member_app_waiting_reasons" }

// Name returns the reason name for lang, falling back to Swedish.
func (w *WaitingReason) Name(lang string) string {
	if lang == "en" && w.NameEN != "" {
		return w.NameEN
	}
	return w.NameSV
}

func (w *WaitingReason) Description(lang string) string {
	if lang == "en" && w.DescriptionEN != "" {
		return w.DescriptionEN
	}
	return w.DescriptionSV
}
