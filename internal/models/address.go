package models

import (
	"strings"
	"time"
)

// DefaultCountry is used when an address has no country.
const DefaultCountry = "Sverige"

// Visibility levels, from everything shown to nothing shown. The level names
// the most specific field that is still visible.
const (
	VisibilityStreetAddress = "street_address"
	VisibilityPostCode      = "post_code"
	VisibilityCity          = "city"
	VisibilityKommun        = "kommun"
	VisibilityNone          = "none"
)

var AddressVisibility = []string{
	VisibilityStreetAddress,
	VisibilityPostCode,
	VisibilityCity,
	VisibilityKommun,
	VisibilityNone,
}

// OwnerKind tags the type of entity an address belongs to.
type OwnerKind string

const OwnerCompany OwnerKind = "Company"

// Address belongs to an owner identified by (OwnerKind, OwnerID). Latitude
// and Longitude are derived by geocoding and are nil until then.
type Address struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	StreetAddress string  `gorm:"size:255" json:"street_address,omitempty"`
	PostCode      string  `gorm:"size:20" json:"post_code,omitempty"`
	City          string  `gorm:"size:100" json:"city,omitempty"`
	Country       string  `gorm:"size:100;not null;default:'Sverige'" json:"country"`
	RegionID      *uint   `gorm:"index" json:"region_id,omitempty"`
	Region        *Region `gorm:"foreignKey:RegionID" json:"region,omitempty"`
	KommunID      *uint   `gorm:"index" json:"kommun_id,omitempty"`
	Kommun        *Kommun `gorm:"foreignKey:KommunID" json:"kommun,omitempty"`

	OwnerKind OwnerKind `gorm:"column:addressable_type;size:50;index:idx_address_owner,priority:1" json:"owner_kind"`
	OwnerID   uint      `gorm:"column:addressable_id;index:idx_address_owner,priority:2" json:"owner_id"`

	Latitude   *float64 `gorm:"index:idx_address_lat_long" json:"latitude,omitempty"`
	Longitude  *float64 `gorm:"index:idx_address_lat_long" json:"longitude,omitempty"`
	Visibility string   `gorm:"size:20;default:'street_address'" json:"visibility"`
	Mail       bool     `gorm:"default:false" json:"mail"`
}

// Geocoded reports whether both coordinates are present.
func (a *Address) Geocoded() bool {
	return a.Latitude != nil && a.Longitude != nil
}

func (a *Address) KommunName() string {
	if a.Kommun == nil {
		return ""
	}
	return a.Kommun.Name
}

func (a *Address) RegionName() string {
	if a.Region == nil {
		return ""
	}
	return a.Region.Name
}

// AddressArray returns the visible address parts, most specific first:
// street, post code, city, kommun, country. Blank parts are left out.
func (a *Address) AddressArray(fullVisibility bool) []string {
	all := []string{a.StreetAddress, a.PostCode, a.City, a.KommunName(), a.country()}
	start := 0
	if !fullVisibility {
		start = visibilityIndex(a.Visibility)
		if start < 0 || a.Visibility == VisibilityNone {
			return nil
		}
	}
	var out []string
	for _, part := range all[start:] {
		if strings.TrimSpace(part) != "" {
			out = append(out, part)
		}
	}
	return out
}

// EntireAddress joins the visible parts; it is empty for visibility "none"
// unless fullVisibility is set.
func (a *Address) EntireAddress(fullVisibility bool) string {
	return strings.Join(a.AddressArray(fullVisibility), ", ")
}

func (a *Address) country() string {
	if strings.TrimSpace(a.Country) == "" {
		return DefaultCountry
	}
	return a.Country
}

func visibilityIndex(v string) int {
	for i, level := range AddressVisibility {
		if level == v {
			return i
		}
	}
	return -1
}

type Region struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"size:100;uniqueIndex" json:"name"`
	Code      string    `gorm:"size:10" json:"code"`
}

type Kommun struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"size:100;uniqueIndex" json:"name"`
}
