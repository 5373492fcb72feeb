package db

import (
	"embed"
	"errors"
	"fmt"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	"github.com/diewo77/go-membership/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var requiredTables = []string{"users", "companies", "membership_applications", "payments", "addresses"}

// Migrate applies the schema. With sqlMigrations set (postgres only) the
// embedded SQL files run through golang-migrate; otherwise AutoMigrate is
// used, which is what dev and tests rely on.
func Migrate(db *gorm.DB, databaseURL string, sqlMigrations bool) error {
	if sqlMigrations && db.Dialector.Name() == "postgres" {
		if err := runSQLMigrations(databaseURL); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range models.All() {
			if err := db.AutoMigrate(m); err != nil {
				return fmt.Errorf("automigrate %T: %w", m, err)
			}
		}
	}

	for _, table := range requiredTables {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

func runSQLMigrations(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
