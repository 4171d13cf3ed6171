// Package store's migrate.go applies the Postgres payments-table schema
// via golang-migrate, the same file-source/dsn-driven approach the
// teacher uses (internal/infrastructure/store/migrate.go).
package store

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies migrations found under ./migrations/<driver> to
// dsn's target database. Only the postgres driver is wired (the
// payments table is the one schema-migrated store; Mongo and
// ClickHouse are schemaless/DDL-managed separately).
func RunMigrations(dsn string) error {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return fmt.Errorf("store: empty data source name")
	}

	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("store: invalid data source name: %w", err)
	}

	driver := strings.ToLower(strings.Split(u.Scheme, "+")[0])
	migrationsPath := fmt.Sprintf("file://migrations/%s", driver)

	log.Printf("migrate: start driver=%s host=%s path=%s", driver, u.Host, migrationsPath)

	m, err := migrate.New(migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("migrate: new: %w", err)
	}
	defer func() {
		serr, derr := m.Close()
		if serr != nil || derr != nil {
			log.Printf("migrate: close error: serr=%v, derr=%v", serr, derr)
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Printf("migrate: no-change driver=%s", driver)
			return nil
		}
		return fmt.Errorf("migrate: up: %w", err)
	}

	log.Printf("migrate: applied driver=%s", driver)
	return nil
}
