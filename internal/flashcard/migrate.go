package flashcard

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Migrate applies the embedded flashcard schema and seed data.
func Migrate(ctx context.Context, connString string) error {
	migrationDB, err := sql.Open("pgx", connString)
	if err != nil {
		return fmt.Errorf("opening db for migrations: %w", err)
	}
	defer migrationDB.Close()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, migrationDB, "migrations"); err != nil {
		return fmt.Errorf("running up migrations: %w", err)
	}

	log.Info().Msg("[flashcard] migrations applied")
	return nil
}
