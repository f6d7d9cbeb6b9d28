package seed

import (
	"database/sql"
	"embed"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// seedFS holds embedded SQL seed files in seed/sql.
//
//go:embed sql/*.sql
var seedFS embed.FS

// Options defines how to run seed migrations.
type Options struct {
	Driver  string
	DSN     string
	Command string
	Target  int64
	Logger  *log.Logger
}

// Run executes seed migrations. Seeds use a separate goose table so schema
// and seed versions advance independently. Empty Driver or DSN is a no-op.
func Run(opts Options) error {
	if strings.TrimSpace(opts.Driver) == "" || strings.TrimSpace(opts.DSN) == "" {
		return nil
	}
	if opts.Logger != nil {
		goose.SetLogger(opts.Logger)
	}
	goose.SetBaseFS(seedFS)
	goose.SetTableName("seed_migrations")

	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	dir := "sql"
	switch strings.ToLower(strings.TrimSpace(opts.Command)) {
	case "", "up":
		return goose.Up(db, dir)
	case "down":
		return goose.Down(db, dir)
	case "status":
		return goose.Status(db, dir)
	case "version":
		return goose.Version(db, dir)
	case "up-to":
		return goose.UpTo(db, dir, opts.Target)
	case "down-to":
		return goose.DownTo(db, dir, opts.Target)
	case "redo":
		return goose.Redo(db, dir)
	case "reset":
		return goose.Reset(db, dir)
	default:
		return fmt.Errorf("unknown seed command: %s", opts.Command)
	}
}

// RunFromEnv runs seed migrations when SEED_ON_START is truthy. SEED_DRIVER
// and SEED_DSN fall back to MIGRATE_DRIVER/MIGRATE_DSN so a single pair of
// variables covers both steps.
func RunFromEnv() error {
	if !isTruthy(os.Getenv("SEED_ON_START")) {
		return nil
	}
	cmd := strings.TrimSpace(os.Getenv("SEED_CMD"))
	if cmd == "" {
		cmd = "up"
	}
	var target int64
	if v := strings.TrimSpace(os.Getenv("SEED_TARGET")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			target = n
		}
	}
	driver := strings.TrimSpace(os.Getenv("SEED_DRIVER"))
	if driver == "" {
		driver = strings.TrimSpace(os.Getenv("MIGRATE_DRIVER"))
	}
	dsn := strings.TrimSpace(os.Getenv("SEED_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("MIGRATE_DSN"))
	}
	return Run(Options{
		Driver:  driver,
		DSN:     dsn,
		Command: cmd,
		Target:  target,
		Logger:  log.New(os.Stdout, "[seed] ", log.LstdFlags),
	})
}

func isTruthy(v string) bool {
	s := strings.TrimSpace(strings.ToLower(v))
	return s == "1" || s == "true" || s == "yes" || s == "y"
}
