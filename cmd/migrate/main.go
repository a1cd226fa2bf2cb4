// Package main applies or rolls back the expedition schema migrations.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/cory-johannsen/basecamp/internal/config"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	migrationsDir := flag.String("path", "migrations", "directory holding the *.sql migrations")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	dbCfg, err := loadDatabaseConfig(*configPath)
	if err != nil {
		log.Fatalf("loading database config: %v", err)
	}

	m, err := migrate.New("file://"+*migrationsDir, dbCfg.DSN())
	if err != nil {
		log.Fatalf("creating migrator: %v", err)
	}
	defer m.Close()

	switch *direction {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	default:
		log.Fatalf("invalid direction %q: must be 'up' or 'down'", *direction)
	}

	noChange := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !noChange {
		log.Fatalf("migration failed: %v", err)
	}

	version, dirty, _ := m.Version()
	elapsed := time.Since(start)

	if noChange {
		fmt.Fprintf(os.Stdout, "no changes (version=%d dirty=%v) [%s]\n", version, dirty, elapsed)
	} else {
		fmt.Fprintf(os.Stdout, "migrated %s to version=%d dirty=%v [%s]\n", *direction, version, dirty, elapsed)
	}
}

// loadDatabaseConfig reads only the database section so the migrator does not
// need the content directories the server validates.
func loadDatabaseConfig(path string) (config.DatabaseConfig, error) {
	v := config.Defaults()
	v.SetConfigFile(path)
	v.SetEnvPrefix("BASECAMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return config.DatabaseConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var dbCfg config.DatabaseConfig
	if err := v.UnmarshalKey("database", &dbCfg); err != nil {
		return config.DatabaseConfig{}, fmt.Errorf("parsing database config: %w", err)
	}
	return dbCfg, nil
}
