package db

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/go-membership/internal/models"
)

// Seed loads the lookup tables. It is idempotent and safe to run on every
// start.
func Seed(db *gorm.DB) error {
	if err := SeedRegions(db); err != nil {
		return err
	}
	if err := SeedKommuns(db); err != nil {
		return err
	}
	if err := SeedBusinessCategories(db); err != nil {
		return err
	}
	return SeedWaitingReasons(db)
}

// SeedRegions creates the Swedish counties (län).
func SeedRegions(db *gorm.DB) error {
	regions := []models.Region{
		{Name: "Stockholm", Code: "AB"},
		{Name: "Uppsala", Code: "C"},
		{Name: "Södermanland", Code: "D"},
		{Name: "Östergötland", Code: "E"},
		{Name: "Jönköping", Code: "F"},
		{Name: "Kronoberg", Code: "G"},
		{Name: "Kalmar", Code: "H"},
		{Name: "Gotland", Code: "I"},
		{Name: "Blekinge", Code: "K"},
		{Name: "Skåne", Code: "M"},
		{Name: "Halland", Code: "N"},
		{Name: "Västra Götaland", Code: "O"},
		{Name: "Värmland", Code: "S"},
		{Name: "Örebro", Code: "T"},
		{Name: "Västmanland", Code: "U"},
		{Name: "Dalarna", Code: "W"},
		{Name: "Gävleborg", Code: "X"},
		{Name: "Västernorrland", Code: "Y"},
		{Name: "Jämtland", Code: "Z"},
		{Name: "Västerbotten", Code: "AC"},
		{Name: "Norrbotten", Code: "BD"},
		{Name: "Sverige", Code: "SE"},
		{Name: "Online", Code: "OL"},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&regions).Error; err != nil {
		return fmt.Errorf("seed regions: %w", err)
	}
	return nil
}

// SeedKommuns creates the municipalities holding a county seat plus the
// larger towns. The remaining ones are added by admins as needed.
func SeedKommuns(db *gorm.DB) error {
	names := []string{
		"Stockholm", "Uppsala", "Nyköping", "Linköping", "Norrköping", "Jönköping",
		"Växjö", "Kalmar", "Gotland", "Karlskrona", "Malmö", "Lund", "Helsingborg",
		"Halmstad", "Göteborg", "Borås", "Karlstad", "Örebro", "Västerås", "Falun",
		"Gävle", "Härnösand", "Sundsvall", "Östersund", "Umeå", "Luleå", "Kiruna",
		"Södertälje", "Eskilstuna", "Trollhättan",
	}
	kommuns := make([]models.Kommun, len(names))
	for i, n := range names {
		kommuns[i] = models.Kommun{Name: n}
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&kommuns).Error; err != nil {
		return fmt.Errorf("seed kommuns: %w", err)
	}
	return nil
}

func SeedBusinessCategories(db *gorm.DB) error {
	categories := []models.BusinessCategory{
		{Name: "Träning", Description: "Kurser och privatträning"},
		{Name: "Psykologi", Description: "Beteendeutredning och rådgivning"},
		{Name: "Hunddagis", Description: "Dagverksamhet"},
		{Name: "Pensionat", Description: "Tillsyn över natt"},
		{Name: "Trim", Description: "Pälsvård och klippning"},
		{Name: "Friskvård", Description: "Massage, rehab och annan friskvård"},
		{Name: "Butik", Description: "Försäljning av utrustning och foder"},
		{Name: "Rastning", Description: "Promenader och hundvakt"},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
		return fmt.Errorf("seed business categories: %w", err)
	}
	return nil
}

// SeedWaitingReasons creates the reasons an admin can pick when asking an
// applicant for more information. The custom one lets the admin type a
// free-text reason instead.
func SeedWaitingReasons(db *gorm.DB) error {
	reasons := []models.WaitingReason{
		{
			NameSV:        "Saknar dokument",
			DescriptionSV: "Ansökan saknar styrkande dokument",
			NameEN:        "Missing documents",
			DescriptionEN: "The application lacks supporting documents",
		},
		{
			NameSV:        "Ofullständigt organisationsnummer",
			DescriptionSV: "Organisationsnumret kunde inte kontrolleras",
			NameEN:        "Incomplete company number",
			DescriptionEN: "The company number could not be verified",
		},
		{
			NameSV:        "Annat",
			DescriptionSV: "Annan anledning, se fritext",
			NameEN:        "Other",
			DescriptionEN: "Other reason, see free text",
			IsCustom:      true,
		},
	}
	for _, r := range reasons {
		reason := r
		if err := db.Where("name_sv = ?", r.NameSV).FirstOrCreate(&reason).Error; err != nil {
			return fmt.Errorf("seed waiting reason %q: %w", r.NameSV, err)
		}
	}
	return nil
}
