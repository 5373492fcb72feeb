package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/diewo77/go-membership/internal/apperr"
	"github.com/diewo77/go-membership/internal/models"
)

func newPaymentService(db *gorm.DB) *PaymentService {
	fees := Fees{Member: decimal.NewFromInt(300), Branding: decimal.NewFromInt(100)}
	return NewPaymentService(db, NewMembershipService(db, nullLogger()), fees, nullLogger())
}

func createPayment(t *testing.T, db *gorm.DB, userID uint, paymentType, status, start, expire string) *models.Payment {
	t.Helper()
	p := models.Payment{
		UserID:      userID,
		PaymentType: paymentType,
		Status:      status,
		StartDate:   day(start),
		ExpireDate:  day(expire),
	}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func TestNextMembershipPaymentDates(t *testing.T) {
	tests := []struct {
		name       string
		prior      []string // expire dates of paid member fees
		today      string
		wantStart  string
		wantExpire string
	}{
		{"first payment", nil, "2018-11-21", "2018-11-21", "2019-11-20"},
		{"renewal", []string{"2018-12-31"}, "2018-11-21", "2019-01-01", "2019-12-31"},
		{"latest of several", []string{"2017-12-31", "2019-06-30", "2018-06-30"}, "2019-05-01", "2019-07-01", "2020-06-30"},
		{"late renewal still back to back", []string{"2018-12-31"}, "2019-03-15", "2019-01-01", "2019-12-31"},
		{"launch year", nil, "2017-06-01", "2017-06-01", "2018-12-31"},
		{"leap day start", nil, "2020-02-29", "2020-02-29", "2021-02-28"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			svc := newPaymentService(db)
			u := createUser(t, db, "a@example.se", false)
			for _, exp := range tt.prior {
				start := day(exp).AddDate(-1, 0, 1).Format("2006-01-02")
				createPayment(t, db, u.ID, models.PaymentTypeMember, models.PaymentStatusPaid, start, exp)
			}

			start, expire, err := svc.NextMembershipPaymentDates(context.Background(), u.ID, day(tt.today))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, ymd(start))
			assert.Equal(t, tt.wantExpire, ymd(expire))
		})
	}
}

func TestNextMembershipPaymentDates_IgnoresUnpaidAndBranding(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(db)
	u := createUser(t, db, "a@example.se", false)
	other := createUser(t, db, "b@example.se", false)

	createPayment(t, db, u.ID, models.PaymentTypeMember, models.PaymentStatusPending, "2019-01-01", "2019-12-31")
	createPayment(t, db, u.ID, models.PaymentTypeMember, models.PaymentStatusExpired, "2020-01-01", "2020-12-31")
	createPayment(t, db, u.ID, models.PaymentTypeBranding, models.PaymentStatusPaid, "2021-01-01", "2021-12-31")
	createPayment(t, db, other.ID, models.PaymentTypeMember, models.PaymentStatusPaid, "2022-01-01", "2022-12-31")

	start, expire, err := svc.NextMembershipPaymentDates(context.Background(), u.ID, day("2018-11-21"))
	require.NoError(t, err)
	assert.Equal(t, "2018-11-21", ymd(start))
	assert.Equal(t, "2019-11-20", ymd(expire))
}

func TestCreate_MemberFee(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(db)
	svc.now = func() time.Time { return time.Date(2018, 11, 21, 15, 30, 0, 0, time.UTC) }
	u := createUser(t, db, "a@example.se", false)

	p, err := svc.Create(context.Background(), PaymentInput{UserID: u.ID, PaymentType: models.PaymentTypeMember, HipsID: "order-1"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCreated, p.Status)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "2018-11-21", ymd(p.StartDate))
	assert.Equal(t, "2019-11-20", ymd(p.ExpireDate))

	var stored models.Payment
	require.NoError(t, db.First(&stored, p.ID).Error)
	assert.True(t, stored.Amount.Equal(decimal.NewFromInt(300)), "stored amount %s", stored.Amount)
}

func TestCreate_BrandingFee(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(db)
	svc.now = func() time.Time { return day("2019-03-01") }
	u := createUser(t, db, "a@example.se", true)
	c := models.Company{CompanyNumber: "5560360793"}
	require.NoError(t, db.Create(&c).Error)

	paid := models.Payment{
		UserID: u.ID, CompanyID: &c.ID, PaymentType: models.PaymentTypeBranding,
		Status: models.PaymentStatusPaid, StartDate: day("2018-06-01"), ExpireDate: day("2019-05-31"),
	}
	require.NoError(t, db.Create(&paid).Error)

	p, err := svc.Create(context.Background(), PaymentInput{UserID: u.ID, PaymentType: models.PaymentTypeBranding, CompanyID: &c.ID})
	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "2019-06-01", ymd(p.StartDate))
	assert.Equal(t, "2020-05-31", ymd(p.ExpireDate))
}

func TestCreate_Validation(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(db)
	u := createUser(t, db, "a@example.se", false)

	tests := []struct {
		name  string
		in    PaymentInput
		field string
	}{
		{"unknown type", PaymentInput{UserID: u.ID, PaymentType: "donation"}, "payment_type"},
		{"branding without company", PaymentInput{UserID: u.ID, PaymentType: models.PaymentTypeBranding}, "company_id"},
		{"no user", PaymentInput{PaymentType: models.PaymentTypeMember}, "user_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			var ae *apperr.Error
			require.True(t, errors.As(err, &ae), "got %v", err)
			assert.Contains(t, ae.Violations, tt.field)
		})
	}
}

func TestApplyOrderStatus_GrantsMembershipOnPaidMemberFee(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(db)
	ctx := context.Background()
	u := createUser(t, db, "a@example.se", false)
	p, err := svc.Create(ctx, PaymentInput{UserID: u.ID, PaymentType: models.PaymentTypeMember, HipsID: "order-1"})
	require.NoError(t, err)

	got, err := svc.ApplyOrderStatus(ctx, "order-1", "pending")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, got.Status)
	var user models.User
	require.NoError(t, db.First(&user, u.ID).Error)
	assert.False(t, user.Member)

	got, err = svc.ApplyOrderStatus(ctx, "order-1", "successful")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, got.Status)
	assert.Equal(t, p.ID, got.ID)

	require.NoError(t, db.First(&user, u.ID).Error)
	assert.True(t, user.Member)
	require.NotNil(t, user.MembershipNumber)
	assert.Equal(t, "1", *user.MembershipNumber)
}

func TestApplyOrderStatus_BrandingFeeDoesNotGrant(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(db)
	ctx := context.Background()
	u := createUser(t, db, "a@example.se", false)
	c := models.Company{CompanyNumber: "5560360793"}
	require.NoError(t, db.Create(&c).Error)
	_, err := svc.Create(ctx, PaymentInput{UserID: u.ID, PaymentType: models.PaymentTypeBranding, CompanyID: &c.ID, HipsID: "order-b"})
	require.NoError(t, err)

	_, err = svc.ApplyOrderStatus(ctx, "order-b", "successful")
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.First(&user, u.ID).Error)
	assert.False(t, user.Member)
	assert.Nil(t, user.MembershipNumber)
}

func TestApplyOrderStatus_Errors(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(db)
	ctx := context.Background()
	u := createUser(t, db, "a@example.se", false)
	_, err := svc.Create(ctx, PaymentInput{UserID: u.ID, PaymentType: models.PaymentTypeMember, HipsID: "order-1"})
	require.NoError(t, err)

	_, err = svc.ApplyOrderStatus(ctx, "order-1", "refunded")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = svc.ApplyOrderStatus(ctx, "no-such-order", "successful")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	stored, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCreated, stored.Status)
}

func TestUpdatedInDateRange(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(db)
	ctx := context.Background()
	u := createUser(t, db, "a@example.se", false)

	recent := createPayment(t, db, u.ID, models.PaymentTypeMember, models.PaymentStatusPaid, "2019-01-01", "2019-12-31")
	old := createPayment(t, db, u.ID, models.PaymentTypeMember, models.PaymentStatusPaid, "2018-01-01", "2018-12-31")
	require.NoError(t, db.Model(old).UpdateColumn("updated_at", time.Now().Add(-72*time.Hour)).Error)

	now := time.Now()
	got, err := svc.UpdatedInDateRange(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, recent.ID, got[0].ID)

	_, err = svc.UpdatedInDateRange(ctx, time.Time{}, now)
	assert.Error(t, err)
	_, err = svc.UpdatedInDateRange(ctx, now, time.Time{})
	assert.Error(t, err)
}
