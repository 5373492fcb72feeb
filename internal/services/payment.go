package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-membership/internal/apperr"
	"github.com/diewo77/go-membership/internal/metrics"
	"github.com/diewo77/go-membership/internal/models"
	"github.com/diewo77/go-membership/internal/validation"
)

// launchYear is the year the association started taking fees; first
// payments made that year run until the end of the following year.
const launchYear = 2017

// Fees holds the amount charged per payment type.
type Fees struct {
	Member   decimal.Decimal
	Branding decimal.Decimal
}

func (f Fees) For(paymentType string) decimal.Decimal {
	if paymentType == models.PaymentTypeBranding {
		return f.Branding
	}
	return f.Member
}

type PaymentService struct {
	db         *gorm.DB
	membership *MembershipService
	fees       Fees
	log        logrus.FieldLogger
	now        func() time.Time
}

func NewPaymentService(db *gorm.DB, membership *MembershipService, fees Fees, log logrus.FieldLogger) *PaymentService {
	return &PaymentService{db: db, membership: membership, fees: fees, log: log, now: time.Now}
}

// completedMemberFees scopes to paid member_fee payments of one user.
func completedMemberFees(db *gorm.DB, userID uint) *gorm.DB {
	return db.Where("user_id = ? AND payment_type = ? AND status = ?",
		userID, models.PaymentTypeMember, models.PaymentStatusPaid)
}

// MostRecentMembershipPayment returns the paid member_fee payment with the
// latest expire date, or nil when the user never paid.
func (s *PaymentService) MostRecentMembershipPayment(ctx context.Context, userID uint) (*models.Payment, error) {
	var p models.Payment
	err := completedMemberFees(s.db.WithContext(ctx), userID).
		Order("expire_date DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// NextMembershipPaymentDates computes the coverage interval of the user's
// next membership fee. It follows directly on the latest paid period, or
// starts on today when there is none. Two concurrent callers for the same
// user may compute the same interval.
func (s *PaymentService) NextMembershipPaymentDates(ctx context.Context, userID uint, today time.Time) (start, expire time.Time, err error) {
	last, err := s.MostRecentMembershipPayment(ctx, userID)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, expire = nextPeriod(last, Date(today))
	return start, expire, nil
}

// nextPeriod is the date arithmetic behind the payment calculators.
func nextPeriod(last *models.Payment, today time.Time) (start, expire time.Time) {
	if last == nil {
		start = today
		if start.Year() == launchYear {
			return start, time.Date(launchYear+1, time.December, 31, 0, 0, 0, 0, time.UTC)
		}
	} else {
		start = Date(last.ExpireDate).AddDate(0, 0, 1)
	}
	return start, start.AddDate(1, 0, -1)
}

// NextBrandingPaymentDates is NextMembershipPaymentDates for a company's
// branding fee.
func (s *PaymentService) NextBrandingPaymentDates(ctx context.Context, companyID uint, today time.Time) (start, expire time.Time, err error) {
	var p models.Payment
	err = s.db.WithContext(ctx).
		Where("company_id = ? AND payment_type = ? AND status = ?",
			companyID, models.PaymentTypeBranding, models.PaymentStatusPaid).
		Order("expire_date DESC").
		First(&p).Error
	var last *models.Payment
	switch {
	case err == nil:
		last = &p
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return time.Time{}, time.Time{}, err
	}
	start, expire = nextPeriod(last, Date(today))
	return start, expire, nil
}

type PaymentInput struct {
	UserID      uint
	PaymentType string
	CompanyID   *uint
	HipsID      string
}

// Create records a new payment in status "skapad" covering the next period
// for its type.
func (s *PaymentService) Create(ctx context.Context, in PaymentInput) (*models.Payment, error) {
	v := validation.Violations{}
	if in.UserID == 0 {
		v.Add("user_id", validation.CodeRequired)
	}
	validation.Required("payment_type", in.PaymentType, v)
	validation.OneOf("payment_type", in.PaymentType,
		[]string{models.PaymentTypeMember, models.PaymentTypeBranding}, v)
	if in.PaymentType == models.PaymentTypeBranding && in.CompanyID == nil {
		v.Add("company_id", validation.CodeRequired)
	}
	if !v.Empty() {
		return nil, apperr.Validation(v)
	}

	today := s.now()
	var start, expire time.Time
	var err error
	if in.PaymentType == models.PaymentTypeBranding {
		start, expire, err = s.NextBrandingPaymentDates(ctx, *in.CompanyID, today)
	} else {
		start, expire, err = s.NextMembershipPaymentDates(ctx, in.UserID, today)
	}
	if err != nil {
		return nil, err
	}

	p := models.Payment{
		UserID:      in.UserID,
		CompanyID:   in.CompanyID,
		PaymentType: in.PaymentType,
		Status:      models.OrderToPaymentStatus(""),
		HipsID:      strings.TrimSpace(in.HipsID),
		Amount:      s.fees.For(in.PaymentType),
		StartDate:   start,
		ExpireDate:  expire,
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	metrics.RecordPaymentStatus(p.PaymentType, p.Status)
	return &p, nil
}

// ApplyOrderStatus mirrors a gateway order status onto the payment with
// that order id. Paying a membership fee grants membership in the same
// transaction. Unmapped order statuses are refused.
func (s *PaymentService) ApplyOrderStatus(ctx context.Context, hipsID, orderStatus string) (*models.Payment, error) {
	status := models.OrderToPaymentStatus(orderStatus)
	if status == models.PaymentStatusUnknown {
		return nil, apperr.Validation(validation.Violations{"status": validation.CodeNotIncluded})
	}

	var p models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("hips_id = ?", hipsID).First(&p).Error; err != nil {
			return notFound(err, "payment")
		}
		previous := p.Status
		if err := tx.Model(&p).Update("status", status).Error; err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		if status == models.PaymentStatusPaid && previous != models.PaymentStatusPaid &&
			p.PaymentType == models.PaymentTypeMember {
			if _, err := s.membership.Grant(ctx, tx, p.UserID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordPaymentStatus(p.PaymentType, p.Status)
	s.log.WithFields(logrus.Fields{
		"payment_id":   p.ID,
		"user_id":      p.UserID,
		"order_status": orderStatus,
		"status":       p.Status,
	}).Info("payment status updated")
	return &p, nil
}

// UpdatedInDateRange returns the payments touched between start and end,
// both inclusive. Both bounds are required.
func (s *PaymentService) UpdatedInDateRange(ctx context.Context, start, end time.Time) ([]models.Payment, error) {
	if start.IsZero() || end.IsZero() {
		return nil, errors.New("payments: both start and end date are required")
	}
	var out []models.Payment
	err := s.db.WithContext(ctx).
		Where("updated_at >= ? AND updated_at <= ?", start, end).
		Order("updated_at").
		Find(&out).Error
	return out, err
}

func (s *PaymentService) Get(ctx context.Context, id uint) (*models.Payment, error) {
	var p models.Payment
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, "payment")
	}
	return &p, nil
}
