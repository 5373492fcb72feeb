package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/go-membership/internal/models"
)

// UserService answers membership questions about a user.
type UserService struct {
	db       *gorm.DB
	payments *PaymentService
}

func NewUserService(db *gorm.DB, payments *PaymentService) *UserService {
	return &UserService{db: db, payments: payments}
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

// MembershipExpireDate is the expire date of the latest paid membership
// fee. ok is false when the user never paid.
func (s *UserService) MembershipExpireDate(ctx context.Context, userID uint) (expire time.Time, ok bool, err error) {
	p, err := s.payments.MostRecentMembershipPayment(ctx, userID)
	if err != nil || p == nil {
		return time.Time{}, false, err
	}
	return p.ExpireDate, true, nil
}

// MembershipPaymentNotes returns the notes on the latest paid membership fee.
func (s *UserService) MembershipPaymentNotes(ctx context.Context, userID uint) (string, error) {
	p, err := s.payments.MostRecentMembershipPayment(ctx, userID)
	if err != nil || p == nil {
		return "", err
	}
	return p.Notes, nil
}

// MembershipCurrent reports whether a paid membership fee covers day.
func (s *UserService) MembershipCurrent(ctx context.Context, userID uint, day time.Time) (bool, error) {
	expire, ok, err := s.MembershipExpireDate(ctx, userID)
	if err != nil || !ok {
		return false, err
	}
	return !Date(day).After(Date(expire)), nil
}

func (s *UserService) HasMembershipApplication(ctx context.Context, userID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.MembershipApplication{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n > 0, err
}

// AllowPayMemberFee reports whether the user may pay the membership fee:
// members renew, and applicants may pay once an application is accepted.
func (s *UserService) AllowPayMemberFee(ctx context.Context, u *models.User) (bool, error) {
	if u.Member {
		return true, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.MembershipApplication{}).
		Where("user_id = ? AND state = ?", u.ID, models.StateAccepted).
		Count(&n).Error
	return n > 0, err
}

// Companies returns the companies the user belongs to through accepted
// applications, without duplicates. Admins get every company.
func (s *UserService) Companies(ctx context.Context, u *models.User) ([]models.Company, error) {
	var out []models.Company
	q := s.db.WithContext(ctx).Order("companies.id")
	if !u.Admin {
		q = q.Where("companies.id IN (?)",
			s.db.Model(&models.MembershipApplication{}).
				Select("company_id").
				Where("user_id = ? AND state = ? AND company_id IS NOT NULL", u.ID, models.StateAccepted))
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// IsInCompanyNumbered reports whether number is among the user's companies.
func (s *UserService) IsInCompanyNumbered(ctx context.Context, u *models.User, number string) (bool, error) {
	companies, err := s.Companies(ctx, u)
	if err != nil {
		return false, err
	}
	for _, c := range companies {
		if c.CompanyNumber == number {
			return true, nil
		}
	}
	return false, nil
}
