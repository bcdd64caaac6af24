// CLI tool to apply or roll back the schema in db/migrations.
// Usage: go run ./cmd/migrate [up|down|version]
package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// findMigrationsDir looks for db/migrations in the working directory and its
// parents, so the tool works from the repo root or from cmd/migrate.
func findMigrationsDir() (string, error) {
	current, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 4; i++ {
		candidate := filepath.Join(current, "db", "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return filepath.Abs(candidate)
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return "", errors.New("db/migrations directory not found")
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Fatal().Msg("DB_URL environment variable is required")
	}

	dir, err := findMigrationsDir()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot locate migrations")
	}
	m, err := migrate.New("file://"+filepath.ToSlash(dir), dbURL)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open migrations")
	}
	defer m.Close()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		v, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			log.Fatal().Err(verr).Msg("cannot read schema version")
		}
		log.Info().Uint("version", v).Bool("dirty", dirty).Msg("schema version")
		return
	default:
		log.Fatal().Str("command", cmd).Msg("unknown command, expected up, down or version")
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Str("command", cmd).Msg("no pending migrations")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("migration failed")
	}
	log.Info().Str("command", cmd).Msg("migration applied")
}
