// Package geocode turns address fields into coordinates.
//
// BestPossible asks a Lookuper for the full address first and then keeps
// dropping the most specific part until something is found. When even the
// country alone is unknown it settles for the centroid of Sweden.
package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/go-membership/internal/apperr"
)

// ErrNotFound is returned by a Lookuper that has no match for a query. Any
// other error is treated as a transport failure.
var ErrNotFound = errors.New("geocode: not found")

// DefaultCountry is assumed when Fields.Country is blank.
const DefaultCountry = "Sverige"

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SverigeCentroid is the final fallback coordinate.
var SverigeCentroid = Point{Lat: 60.128161, Lon: 18.643501}

// Lookuper resolves one free-form address string.
type Lookuper interface {
	Lookup(ctx context.Context, query string) (Point, error)
}

// LookupFunc adapts a function to Lookuper.
type LookupFunc func(ctx context.Context, query string) (Point, error)

func (f LookupFunc) Lookup(ctx context.Context, query string) (Point, error) {
	return f(ctx, query)
}

// Precision names the most specific part the returned point is based on.
type Precision string

const (
	PrecisionStreet   Precision = "street_address"
	PrecisionPostCode Precision = "post_code"
	PrecisionCity     Precision = "city"
	PrecisionKommun   Precision = "kommun"
	PrecisionRegion   Precision = "region"
	PrecisionCountry  Precision = "country"
	PrecisionDefault  Precision = "default"
)

// Fields are the location parts of an address.
type Fields struct {
	StreetAddress string
	PostCode      string
	City          string
	Kommun        string
	Region        string
	Country       string
}

// Blank reports whether no location part is set at all.
func (f Fields) Blank() bool {
	for _, v := range []string{f.StreetAddress, f.PostCode, f.City, f.Kommun, f.Region, f.Country} {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type part struct {
	precision Precision
	value     string
}

// parts returns the non-blank parts, most specific first. The country is
// always last and always present.
func (f Fields) parts() []part {
	all := []part{
		{PrecisionStreet, f.StreetAddress},
		{PrecisionPostCode, f.PostCode},
		{PrecisionCity, f.City},
		{PrecisionKommun, f.Kommun},
		{PrecisionRegion, f.Region},
	}
	var out []part
	for _, p := range all {
		if v := strings.TrimSpace(p.value); v != "" {
			out = append(out, part{p.precision, v})
		}
	}
	country := strings.TrimSpace(f.Country)
	if country == "" {
		country = DefaultCountry
	}
	return append(out, part{PrecisionCountry, country})
}

func query(parts []part) string {
	values := make([]string, len(parts))
	for i, p := range parts {
		values[i] = p.value
	}
	return strings.Join(values, ", ")
}

// Queries lists the queries BestPossible would try for f, in order.
func Queries(f Fields) []string {
	if f.Blank() {
		return nil
	}
	parts := f.parts()
	out := make([]string, 0, len(parts))
	for i := range parts {
		out = append(out, query(parts[i:]))
	}
	return out
}

// BestPossible geocodes f with the highest precision the Lookuper can
// resolve. Not-found answers loosen the query; any other lookup error stops
// the chain and comes back as an EXTERNAL_SERVICE error.
func BestPossible(ctx context.Context, l Lookuper, f Fields) (Point, Precision, error) {
	if f.Blank() {
		return SverigeCentroid, PrecisionDefault, nil
	}
	parts := f.parts()
	for i := range parts {
		p, err := l.Lookup(ctx, query(parts[i:]))
		if err == nil {
			return p, parts[i].precision, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Point{}, "", apperr.External("geocoder", err)
		}
	}
	return SverigeCentroid, PrecisionDefault, nil
}
