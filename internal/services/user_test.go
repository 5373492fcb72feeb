package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/diewo77/go-membership/internal/models"
)

func newUserService(db *gorm.DB) *UserService {
	return NewUserService(db, newPaymentService(db))
}

func TestMembershipExpireDateAndNotes(t *testing.T) {
	db := setupTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()
	u := createUser(t, db, "a@example.se", true)

	_, ok, err := svc.MembershipExpireDate(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	createPayment(t, db, u.ID, models.PaymentTypeMember, models.PaymentStatusPaid, "2018-01-01", "2018-12-31")
	latest := createPayment(t, db, u.ID, models.PaymentTypeMember, models.PaymentStatusPaid, "2019-01-01", "2019-12-31")
	require.NoError(t, db.Model(latest).Update("notes", "betalt via bankgiro").Error)

	expire, ok, err := svc.MembershipExpireDate(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2019-12-31", ymd(expire))

	notes, err := svc.MembershipPaymentNotes(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "betalt via bankgiro", notes)

	current, err := svc.MembershipCurrent(ctx, u.ID, day("2019-12-31"))
	require.NoError(t, err)
	assert.True(t, current)
	current, err = svc.MembershipCurrent(ctx, u.ID, day("2020-01-01"))
	require.NoError(t, err)
	assert.False(t, current)
}

func TestAllowPayMemberFee(t *testing.T) {
	db := setupTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	member := createUser(t, db, "m@example.se", true)
	ok, err := svc.AllowPayMemberFee(ctx, member)
	require.NoError(t, err)
	assert.True(t, ok)

	applicant := createUser(t, db, "a@example.se", false)
	has, err := svc.HasMembershipApplication(ctx, applicant.ID)
	require.NoError(t, err)
	assert.False(t, has)

	app := models.MembershipApplication{UserID: applicant.ID, CompanyNumber: "5560360793", ContactEmail: "a@b.se", State: models.StateUnderReview}
	require.NoError(t, db.Create(&app).Error)
	has, err = svc.HasMembershipApplication(ctx, applicant.ID)
	require.NoError(t, err)
	assert.True(t, has)

	ok, err = svc.AllowPayMemberFee(ctx, applicant)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Model(&app).Update("state", models.StateAccepted).Error)
	ok, err = svc.AllowPayMemberFee(ctx, applicant)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCompanies(t *testing.T) {
	db := setupTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	c1 := models.Company{CompanyNumber: "5560360793"}
	c2 := models.Company{CompanyNumber: "2120000142"}
	c3 := models.Company{CompanyNumber: "5562252998"}
	require.NoError(t, db.Create(&[]*models.Company{&c1, &c2, &c3}).Error)

	u := createUser(t, db, "a@example.se", true)
	apps := []models.MembershipApplication{
		{UserID: u.ID, CompanyNumber: c1.CompanyNumber, ContactEmail: "a@b.se", State: models.StateAccepted, CompanyID: &c1.ID},
		{UserID: u.ID, CompanyNumber: c2.CompanyNumber, ContactEmail: "a@b.se", State: models.StateRejected, CompanyID: &c2.ID},
	}
	require.NoError(t, db.Create(&apps).Error)

	got, err := svc.Companies(ctx, u)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, c1.ID, got[0].ID)

	in, err := svc.IsInCompanyNumbered(ctx, u, "5560360793")
	require.NoError(t, err)
	assert.True(t, in)
	in, err = svc.IsInCompanyNumbered(ctx, u, "2120000142")
	require.NoError(t, err)
	assert.False(t, in)

	admin := createUser(t, db, "admin@example.se", false)
	admin.Admin = true
	got, err = svc.Companies(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
