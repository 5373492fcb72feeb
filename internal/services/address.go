package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-membership/internal/addressable"
	"github.com/diewo77/go-membership/internal/apperr"
	"github.com/diewo77/go-membership/internal/geocode"
	"github.com/diewo77/go-membership/internal/metrics"
	"github.com/diewo77/go-membership/internal/models"
	"github.com/diewo77/go-membership/internal/validation"
)

type AddressInput struct {
	OwnerKind     models.OwnerKind
	OwnerID       uint
	StreetAddress string
	PostCode      string
	City          string
	Country       string
	RegionID      *uint
	KommunID      *uint
	Visibility    string
	Mail          bool
}

type AddressService struct {
	db       *gorm.DB
	geocoder geocode.Lookuper
	owners   *addressable.Registry
	log      logrus.FieldLogger
}

func NewAddressService(db *gorm.DB, geocoder geocode.Lookuper, owners *addressable.Registry, log logrus.FieldLogger) *AddressService {
	return &AddressService{db: db, geocoder: geocoder, owners: owners, log: log}
}

// Create validates, geocodes and stores a new address.
func (s *AddressService) Create(ctx context.Context, in AddressInput) (*models.Address, error) {
	var a models.Address
	apply(&a, in)
	if err := s.save(ctx, &a, true); err != nil {
		return nil, err
	}
	return &a, nil
}

// Update replaces the fields of address id. The address is only geocoded
// again when a location field changed.
func (s *AddressService) Update(ctx context.Context, id uint, in AddressInput) (*models.Address, error) {
	var a models.Address
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, notFound(err, "address")
	}
	if a.OwnerKind != in.OwnerKind || a.OwnerID != in.OwnerID {
		return nil, apperr.NotFound("address")
	}
	before := a
	apply(&a, in)
	if err := s.save(ctx, &a, locationChanged(&before, &a)); err != nil {
		return nil, err
	}
	return &a, nil
}

func apply(a *models.Address, in AddressInput) {
	a.OwnerKind = in.OwnerKind
	a.OwnerID = in.OwnerID
	a.StreetAddress = strings.TrimSpace(in.StreetAddress)
	a.PostCode = strings.TrimSpace(in.PostCode)
	a.City = strings.TrimSpace(in.City)
	a.Country = strings.TrimSpace(in.Country)
	if a.Country == "" {
		a.Country = models.DefaultCountry
	}
	a.RegionID = in.RegionID
	a.KommunID = in.KommunID
	a.Visibility = strings.TrimSpace(in.Visibility)
	if a.Visibility == "" {
		a.Visibility = models.VisibilityStreetAddress
	}
	a.Mail = in.Mail
	// associations are reloaded from the ids when needed
	a.Region = nil
	a.Kommun = nil
}

func locationChanged(before, after *models.Address) bool {
	return before.StreetAddress != after.StreetAddress ||
		before.PostCode != after.PostCode ||
		before.City != after.City ||
		before.Country != after.Country ||
		!sameID(before.RegionID, after.RegionID) ||
		!sameID(before.KommunID, after.KommunID)
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *AddressService) save(ctx context.Context, a *models.Address, geocodeIt bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validate(ctx, tx, a); err != nil {
			return err
		}
		if geocodeIt {
			if err := s.geocode(ctx, tx, a); err != nil {
				return err
			}
		}
		return tx.Save(a).Error
	})
}

func (s *AddressService) validate(ctx context.Context, tx *gorm.DB, a *models.Address) error {
	if _, err := s.owners.Of(ctx, tx, a); err != nil {
		if errors.Is(err, addressable.ErrUnknownKind) {
			return apperr.Validation(validation.Violations{"addressable": validation.CodeInvalid})
		}
		return err
	}

	v := validation.Violations{}
	validation.OneOf("visibility", a.Visibility, models.AddressVisibility, v)
	if a.RegionID != nil {
		ok, err := exists(tx, &models.Region{}, *a.RegionID)
		if err != nil {
			return err
		}
		if !ok {
			v.Add("region_id", validation.CodeNotIncluded)
		}
	}
	if a.KommunID != nil {
		ok, err := exists(tx, &models.Kommun{}, *a.KommunID)
		if err != nil {
			return err
		}
		if !ok {
			v.Add("kommun_id", validation.CodeNotIncluded)
		}
	}
	if a.Mail {
		var n int64
		q := tx.Model(&models.Address{}).
			Where("addressable_type = ? AND addressable_id = ? AND mail = ?", a.OwnerKind, a.OwnerID, true)
		if a.ID != 0 {
			q = q.Where("id <> ?", a.ID)
		}
		if err := q.Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			v.Add("mail", validation.CodeMailTaken)
		}
	}
	if !v.Empty() {
		return apperr.Validation(v)
	}
	return nil
}

func exists(tx *gorm.DB, model any, id uint) (bool, error) {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("lookup %T %d: %w", model, id, err)
	}
	return n > 0, nil
}

// geocode sets the coordinates of a. On a lookup failure a is left
// untouched and the error aborts the save.
func (s *AddressService) geocode(ctx context.Context, tx *gorm.DB, a *models.Address) error {
	f := geocode.Fields{
		StreetAddress: a.StreetAddress,
		PostCode:      a.PostCode,
		City:          a.City,
		Country:       a.Country,
	}
	if a.KommunID != nil {
		var k models.Kommun
		switch err := tx.First(&k, *a.KommunID).Error; {
		case err == nil:
			f.Kommun = k.Name
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("load kommun: %w", err)
		}
	}
	if a.RegionID != nil {
		var r models.Region
		switch err := tx.First(&r, *a.RegionID).Error; {
		case err == nil:
			f.Region = r.Name
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("load region: %w", err)
		}
	}

	p, precision, err := geocode.BestPossible(ctx, s.geocoder, f)
	metrics.RecordGeocode(string(precision))
	if err != nil {
		return err
	}
	lat, lon := p.Lat, p.Lon
	a.Latitude = &lat
	a.Longitude = &lon
	s.log.WithFields(logrus.Fields{"address_id": a.ID, "precision": precision}).Debug("address geocoded")
	return nil
}

func (s *AddressService) Get(ctx context.Context, id uint) (*models.Address, error) {
	var a models.Address
	if err := s.db.WithContext(ctx).Preload("Region").Preload("Kommun").First(&a, id).Error; err != nil {
		return nil, notFound(err, "address")
	}
	return &a, nil
}

// ForOwner lists an owner's addresses, mailing address first.
func (s *AddressService) ForOwner(ctx context.Context, kind models.OwnerKind, ownerID uint) ([]models.Address, error) {
	var out []models.Address
	err := s.db.WithContext(ctx).Preload("Region").Preload("Kommun").
		Where("addressable_type = ? AND addressable_id = ?", kind, ownerID).
		Order("mail DESC, id").
		Find(&out).Error
	return out, err
}

// MailAddress returns the owner's mailing address, or nil.
func (s *AddressService) MailAddress(ctx context.Context, kind models.OwnerKind, ownerID uint) (*models.Address, error) {
	var a models.Address
	err := s.db.WithContext(ctx).
		Where("addressable_type = ? AND addressable_id = ? AND mail = ?", kind, ownerID, true).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Visible returns the addresses whose visibility is not "none".
func (s *AddressService) Visible(ctx context.Context) ([]models.Address, error) {
	var out []models.Address
	err := s.db.WithContext(ctx).Where("visibility <> ?", models.VisibilityNone).Order("id").Find(&out).Error
	return out, err
}

func (s *AddressService) HasRegion(ctx context.Context) ([]models.Address, error) {
	var out []models.Address
	err := s.db.WithContext(ctx).Where("region_id IS NOT NULL").Order("id").Find(&out).Error
	return out, err
}

func (s *AddressService) LackingRegion(ctx context.Context) ([]models.Address, error) {
	var out []models.Address
	err := s.db.WithContext(ctx).Where("region_id IS NULL").Order("id").Find(&out).Error
	return out, err
}

// GeocodeAllNeeded geocodes every address missing a coordinate, batchSize
// at a time with pause between batches to stay under the geocoder's rate
// limit. A failing address is logged and skipped. It returns the number of
// addresses geocoded.
func (s *AddressService) GeocodeAllNeeded(ctx context.Context, batchSize int, pause time.Duration) (int, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	db := s.db.WithContext(ctx)
	done := 0
	lastID := uint(0)
	for {
		var batch []models.Address
		err := db.Where("(latitude IS NULL OR longitude IS NULL) AND id > ?", lastID).
			Order("id").
			Limit(batchSize).
			Find(&batch).Error
		if err != nil {
			return done, err
		}
		if len(batch) == 0 {
			return done, nil
		}
		for i := range batch {
			a := &batch[i]
			lastID = a.ID
			if err := s.geocode(ctx, db, a); err != nil {
				s.log.WithError(err).WithField("address_id", a.ID).Warn("geocoding failed")
				continue
			}
			if err := db.Model(a).Select("Latitude", "Longitude").Updates(a).Error; err != nil {
				return done, err
			}
			done++
		}
		if len(batch) < batchSize {
			return done, nil
		}
		select {
		case <-ctx.Done():
			return done, ctx.Err()
		case <-time.After(pause):
		}
	}
}
