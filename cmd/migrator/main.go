package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/linemk/order-manager/internal/app"
	"github.com/linemk/order-manager/internal/config"
)

const migrationsTable = "schema_migrations"

// buildMigrateDSN добавляет к DSN таблицу версий миграций
func buildMigrateDSN(dbCfg config.DatabaseConfig, table string) string {
	return app.DSN(dbCfg) + "&x-migrations-table=" + url.QueryEscape(table)
}

func main() {
	var migrationsPathFlag string
	var down bool
	// флаги регистрируются до config.MustLoad, который сам вызывает flag.Parse
	flag.StringVar(&migrationsPathFlag, "migrations-path", "", "path to migration files")
	flag.BoolVar(&down, "down", false, "roll back all migrations")

	cfg := config.MustLoad()

	migrationsPath := cfg.Migrations.Path
	if migrationsPathFlag != "" {
		migrationsPath = migrationsPathFlag
	}

	// Создаем объект мигратора
	m, err := migrate.New("file://"+migrationsPath, buildMigrateDSN(cfg.Database, migrationsTable))
	if err != nil {
		log.Fatalf("failed to create migrate instance: %v", err)
	}
	defer m.Close()

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("No migrations to apply")
			return
		}
		log.Fatalf("migration failed: %v", err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		fmt.Println("All migrations rolled back")
	case err != nil:
		log.Fatalf("failed to read migration version: %v", err)
	default:
		fmt.Printf("Migrations applied successfully, version %d (dirty: %t)\n", version, dirty)
	}
}
