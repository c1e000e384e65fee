package gormdb

import (
	"context"
	"embed"
	"fmt"
	"path"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// gooseDialects maps gorm dialector names to goose dialects and the
// migration directory holding the SQL for that dialect.
var gooseDialects = map[string]string{
	"sqlite":   "sqlite3",
	"postgres": "postgres",
	"mysql":    "mysql",
}

func RunMigrations(ctx context.Context, db *gorm.DB) error {
	name := db.Dialector.Name()
	dialect, ok := gooseDialects[name]
	if !ok {
		return fmt.Errorf("no migrations for dialect %q", name)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.UpContext(ctx, sqlDB, path.Join("migrations", name)); err != nil {
		return fmt.Errorf("migrate %s: %w", name, err)
	}

	return nil
}
