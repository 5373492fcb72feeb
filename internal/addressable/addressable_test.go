package addressable

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/go-membership/internal/apperr"
	"github.com/diewo77/go-membership/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Company{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestDefault_ResolvesCompany(t *testing.T) {
	db := setupTestDB(t)
	c := models.Company{CompanyNumber: "5560360793", Name: "Hundskolan AB"}
	db.Create(&c)

	r := Default()
	owner, err := r.Of(context.Background(), db, &models.Address{OwnerKind: models.OwnerCompany, OwnerID: c.ID})
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	if owner.ID != c.ID || owner.Label != "Hundskolan AB" || owner.Kind != models.OwnerCompany {
		t.Errorf("owner = %+v", owner)
	}
}

func TestDefault_LabelFallsBackToNumber(t *testing.T) {
	db := setupTestDB(t)
	c := models.Company{CompanyNumber: "2120000142"}
	db.Create(&c)

	owner, err := Default().Resolve(context.Background(), db, models.OwnerCompany, c.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if owner.Label != "2120000142" {
		t.Errorf("Label = %q", owner.Label)
	}
}

func TestResolve_MissingCompany(t *testing.T) {
	db := setupTestDB(t)
	_, err := Default().Resolve(context.Background(), db, models.OwnerCompany, 999)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestResolve_UnknownKind(t *testing.T) {
	db := setupTestDB(t)
	_, err := Default().Resolve(context.Background(), db, models.OwnerKind("Event"), 1)
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestRegister_CustomKind(t *testing.T) {
	r := NewRegistry()
	r.Register("Event", HandlerFunc(func(_ context.Context, _ *gorm.DB, id uint) (Owner, error) {
		return Owner{Kind: "Event", ID: id, Label: "event"}, nil
	}))
	r.Register(models.OwnerCompany, HandlerFunc(resolveCompany))

	kinds := r.Kinds()
	if len(kinds) != 2 || kinds[0] != models.OwnerCompany || kinds[1] != "Event" {
		t.Errorf("Kinds() = %v", kinds)
	}
	owner, err := r.Resolve(context.Background(), nil, "Event", 5)
	if err != nil || owner.ID != 5 {
		t.Errorf("Resolve = %+v, %v", owner, err)
	}
}
