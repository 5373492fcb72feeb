package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment types.
const (
	PaymentTypeMember   = "member_fee"
	PaymentTypeBranding = "branding_fee"
)

// Stored payment statuses. They mirror the gateway's order statuses and are
// shown to users as-is, hence Swedish.
const (
	PaymentStatusCreated         = "skapad"
	PaymentStatusPending         = "avvaktan"
	PaymentStatusPaid            = "betald"
	PaymentStatusExpired         = "utgånget"
	PaymentStatusAwaitingPayment = "Väntar på betalning"
	PaymentStatusUnknown         = "unknown"
)

// orderPaymentStatus maps a gateway order status onto a payment status. The
// empty order status is an order that has been created but not yet touched.
var orderPaymentStatus = map[string]string{
	"":                  PaymentStatusCreated,
	"pending":           PaymentStatusPending,
	"successful":        PaymentStatusPaid,
	"expired":           PaymentStatusExpired,
	"awaiting_payments": PaymentStatusAwaitingPayment,
}

// OrderToPaymentStatus translates a gateway order status. Unmapped statuses
// become "unknown".
func OrderToPaymentStatus(orderStatus string) string {
	if s, ok := orderPaymentStatus[orderStatus]; ok {
		return s
	}
	return PaymentStatusUnknown
}

// PaymentStatuses lists every status a payment may legitimately hold.
func PaymentStatuses() []string {
	return []string{
		PaymentStatusCreated,
		PaymentStatusPending,
		PaymentStatusPaid,
		PaymentStatusExpired,
		PaymentStatusAwaitingPayment,
	}
}

// Payment is one fee transaction. Consecutive member_fee payments cover
// back-to-back [StartDate, ExpireDate] intervals.
type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`

	UserID    uint     `gorm:"index;not null" json:"user_id"`
	User      *User    `gorm:"foreignKey:UserID" json:"-"`
	CompanyID *uint    `gorm:"index" json:"company_id,omitempty"` // branding_fee only
	Company   *Company `gorm:"foreignKey:CompanyID" json:"-"`

	PaymentType string          `gorm:"size:20;not null;index" json:"payment_type"`
	Status      string          `gorm:"size:40;not null;index" json:"status"`
	HipsID      string          `gorm:"column:hips_id;size:100;index" json:"hips_id,omitempty"`
	Amount      decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"amount"`
	StartDate   time.Time       `gorm:"type:date;not null" json:"start_date"`
	ExpireDate  time.Time       `gorm:"type:date;not null;index" json:"expire_date"`
	Notes       string          `gorm:"type:text" json:"notes,omitempty"`
}

// GetUserID implements the Ownable interface.
func (p *Payment) GetUserID() uint {
	return p.UserID
}

func (p *Payment) Completed() bool {
	return p.Status == PaymentStatusPaid
}

// CoversDate reports whether day falls inside the payment's interval.
func (p *Payment) CoversDate(day time.Time) bool {
	return !day.Before(p.StartDate) && !day.After(p.ExpireDate)
}
