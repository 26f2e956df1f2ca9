package migrate

import (
	"context"
	"embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/repo-analysis/repokeep/pkg/db"
)

//go:embed *.sql
var sqls embed.FS

// Keep this in order of execution, oldest to newest.
var migrations = []Migration{
	createOperations,
}

type direction string

const (
	up   direction = "up"
	down direction = "down"
)

// migrationFile returns the embedded file name of a migration script, for
// instance 0001_create_operations_sqlite.up.sql.
func migrationFile(version int, name, driverName string, dir direction) string {
	if driverName == driverSQLite3 {
		driverName = driverSQLite
	}
	return fmt.Sprintf("%04d_%s_%s.%s.sql", version, toSnakeCase(name), driverName, dir)
}

func execMigration(ctx context.Context, h db.Handler, version int, name string, dir direction) error {
	fn := migrationFile(version, name, h.DriverName(), dir)
	script, err := sqls.ReadFile(fn)
	if err != nil {
		return fmt.Errorf("no %s migration for driver %s: %w", dir, h.DriverName(), err)
	}

	if _, err := h.ExecContext(ctx, string(script)); err != nil {
		return fmt.Errorf("%s: %w", fn, err)
	}

	return nil
}

func migrateUp(ctx context.Context, h db.Handler, version int, name string) error {
	return execMigration(ctx, h, version, name, up)
}

func migrateDown(ctx context.Context, h db.Handler, version int, name string) error {
	return execMigration(ctx, h, version, name, down)
}

var (
	matchFirstCap = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllCap   = regexp.MustCompile("([a-z0-9])([A-Z])")
)

func toSnakeCase(str string) string {
	str = strings.NewReplacer("-", "_", " ", "_").Replace(str)
	snake := matchFirstCap.ReplaceAllString(str, "${1}_${2}")
	snake = matchAllCap.ReplaceAllString(snake, "${1}_${2}")
	return strings.ToLower(snake)
}
