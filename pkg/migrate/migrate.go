// Package migrate applies the embedded goose migrations. Every supported
// database driver has its own directory holding the same versions.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"

	"go-retail-ws/pkg/config"
	"go-retail-ws/pkg/logger"
)

//go:embed migrations
var migrationsFS embed.FS

var dialects = map[string]string{
	config.DriverMySQL:    "mysql",
	config.DriverPostgres: "postgres",
	config.DriverSQLite:   "sqlite3",
}

// goose keeps its settings in package globals.
var mu sync.Mutex

// Dir returns the embedded migration directory for driver.
func Dir(driver string) (string, error) {
	if _, ok := dialects[driver]; !ok {
		return "", fmt.Errorf("no migrations for driver %q", driver)
	}
	return path.Join("migrations", driver), nil
}

// Run executes a goose command (up, down, status, redo, reset, ...) against db.
func Run(ctx context.Context, db *sql.DB, driver string, log *logger.Logger, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	dir, err := Dir(driver)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if err := setup(ctx, driver, log); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, driver string, log *logger.Logger) error {
	return Run(ctx, db, driver, log, "up")
}

// Version reports the highest applied migration.
func Version(ctx context.Context, db *sql.DB, driver string, log *logger.Logger) (int64, error) {
	if _, err := Dir(driver); err != nil {
		return 0, err
	}
	mu.Lock()
	defer mu.Unlock()
	if err := setup(ctx, driver, log); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("get db version: %w", err)
	}
	return v, nil
}

// MigrateToVersion moves the schema up or down to target.
func MigrateToVersion(ctx context.Context, db *sql.DB, driver string, log *logger.Logger, target int64) error {
	dir, err := Dir(driver)
	if err != nil {
		return err
	}
	current, err := Version(ctx, db, driver, log)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if err := setup(ctx, driver, log); err != nil {
		return err
	}
	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}

func setup(ctx context.Context, driver string, log *logger.Logger) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{ctx: log.WithField(ctx, "driver", driver), log: log})
	if err := goose.SetDialect(dialects[driver]); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

type gooseLogger struct {
	ctx context.Context
	log *logger.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.log.Info(g.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.log.Error(g.ctx, "goose fatal", fmt.Errorf(format, v...))
	os.Exit(1)
}

var sqlFileRe = regexp.MustCompile(`^(\d{5})_[a-z0-9_]+\.sql$`)

// Validate checks file names and goose annotations, and that every driver
// directory carries the same migration versions.
func Validate() error {
	var reference []string
	drivers := make([]string, 0, len(dialects))
	for d := range dialects {
		drivers = append(drivers, d)
	}
	sort.Strings(drivers)

	for _, driver := range drivers {
		dir, _ := Dir(driver)
		versions, err := validateDir(migrationsFS, dir)
		if err != nil {
			return err
		}
		if reference == nil {
			reference = versions
			continue
		}
		if strings.Join(versions, ",") != strings.Join(reference, ",") {
			return fmt.Errorf("%s migrations %v differ from %s %v", driver, versions, drivers[0], reference)
		}
	}
	return nil
}

func validateDir(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	var versions []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected NNNNN_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		b, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", name, err)
		}
		txt := string(b)
		if !strings.Contains(txt, "-- +goose Up") || !strings.Contains(txt, "-- +goose Down") {
			return nil, fmt.Errorf("migration %s/%s needs both goose Up and Down sections", dir, name)
		}
		versions = append(versions, m[1])
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("no migrations in %q", dir)
	}
	sort.Slice(versions, func(i, j int) bool {
		a, _ := strconv.Atoi(versions[i])
		b, _ := strconv.Atoi(versions[j])
		return a < b
	})
	return versions, nil
}
