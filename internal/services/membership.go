package services

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-membership/internal/models"
)

type MembershipService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewMembershipService(db *gorm.DB, log logrus.FieldLogger) *MembershipService {
	return &MembershipService{db: db, log: log}
}

// Grant makes the user a member. A user without a membership number gets
// the next one in sequence; an existing number is kept. Pass a transaction
// as tx, or nil to use the service's own connection.
func (s *MembershipService) Grant(ctx context.Context, tx *gorm.DB, userID uint) (*models.User, error) {
	if tx == nil {
		tx = s.db
	}
	tx = tx.WithContext(ctx)

	var u models.User
	if err := tx.First(&u, userID).Error; err != nil {
		return nil, notFound(err, "user")
	}

	updates := map[string]any{"member": true}
	if !u.HasMembershipNumber() {
		next, err := s.nextMembershipNumber(tx)
		if err != nil {
			return nil, err
		}
		updates["membership_number"] = next
		u.MembershipNumber = &next
	}
	if err := tx.Model(&u).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("grant membership: %w", err)
	}
	u.Member = true

	s.log.WithFields(logrus.Fields{
		"user_id":           u.ID,
		"membership_number": *u.MembershipNumber,
	}).Info("membership granted")
	return &u, nil
}

// nextMembershipNumber is one more than the highest number in use, counted
// numerically so that "10" sorts after "9".
func (s *MembershipService) nextMembershipNumber(tx *gorm.DB) (string, error) {
	var highest sql.NullInt64
	if err := tx.Model(&models.User{}).Unscoped().
		Select("MAX(CAST(membership_number AS INTEGER))").
		Row().Scan(&highest); err != nil {
		return "", fmt.Errorf("max membership number: %w", err)
	}
	next := highest.Int64 + 1
	return strconv.FormatInt(next, 10), nil
}
