package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/go-membership/internal/models"
)

type CompanyService struct {
	db *gorm.DB
}

func NewCompanyService(db *gorm.DB) *CompanyService {
	return &CompanyService{db: db}
}

// FindOrCreate returns the company with number, creating it when missing.
// email is only used for a new company. The insert relies on the unique
// company_number index: a concurrent creator makes ours a no-op and the
// winner's row is read back. Pass a transaction as tx, or nil to use the
// service's own connection.
func (s *CompanyService) FindOrCreate(ctx context.Context, tx *gorm.DB, number, email string) (*models.Company, bool, error) {
	if tx == nil {
		tx = s.db
	}
	tx = tx.WithContext(ctx)

	c := models.Company{CompanyNumber: number, Email: email}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "company_number"}},
		DoNothing: true,
	}).Create(&c)
	if res.Error != nil {
		return nil, false, fmt.Errorf("create company %s: %w", number, res.Error)
	}
	created := res.RowsAffected == 1

	var found models.Company
	if err := tx.Where("company_number = ?", number).First(&found).Error; err != nil {
		return nil, false, fmt.Errorf("load company %s: %w", number, err)
	}
	return &found, created, nil
}

func (s *CompanyService) Get(ctx context.Context, id uint) (*models.Company, error) {
	var c models.Company
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, "company")
	}
	return &c, nil
}

// ApplicationCount counts the applications linked to a company.
func (s *CompanyService) ApplicationCount(ctx context.Context, tx *gorm.DB, companyID uint) (int64, error) {
	if tx == nil {
		tx = s.db
	}
	var n int64
	err := tx.WithContext(ctx).Model(&models.MembershipApplication{}).
		Where("company_id = ?", companyID).
		Count(&n).Error
	return n, err
}

// delete removes a company together with its addresses. Branding payments
// keep their rows but lose the company link.
func (s *CompanyService) delete(ctx context.Context, tx *gorm.DB, companyID uint) error {
	tx = tx.WithContext(ctx)
	if err := tx.Where("addressable_type = ? AND addressable_id = ?", models.OwnerCompany, companyID).
		Delete(&models.Address{}).Error; err != nil {
		return fmt.Errorf("delete company addresses: %w", err)
	}
	if err := tx.Model(&models.Payment{}).Where("company_id = ?", companyID).
		Update("company_id", nil).Error; err != nil {
		return fmt.Errorf("detach company payments: %w", err)
	}
	if err := tx.Delete(&models.Company{}, companyID).Error; err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	return nil
}
