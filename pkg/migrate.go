package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"path"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

var (
	ErrFailedToApplyMigrations = errors.New("failed to apply migrations")
	ErrUnsupportedDialect      = errors.New("unsupported migration dialect")
)

// goose хранит диалект и FS в глобальном состоянии
var gooseMu sync.Mutex

// Migrate применяет встроенные миграции для диалекта postgres или sqlite.
func Migrate(ctx context.Context, db *sqlx.DB, dialect string, logger *zap.Logger) error {
	var gooseDialect string
	switch dialect {
	case "postgres":
		gooseDialect = "postgres"
	case "sqlite":
		gooseDialect = "sqlite3"
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLogger{log: logger.Sugar().With("component", "migrations")})

	if err := goose.SetDialect(gooseDialect); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	if err := goose.UpContext(ctx, db.DB, path.Join("migrations", dialect)); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	return nil
}

type gooseLogger struct {
	log *zap.SugaredLogger
}

func (l *gooseLogger) Fatalf(format string, v ...any) {
	l.log.Errorf(format, v...)
}

func (l *gooseLogger) Printf(format string, v ...any) {
	l.log.Infof(format, v...)
}
