// Command import_recipes performs a single recipe import outside the
// server's schedule.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"foodgram/internal/config"
	"foodgram/internal/db"
	"foodgram/internal/db/mock"
	"foodgram/internal/job"
	applog "foodgram/internal/log"
)

type importRunner interface {
	Run(ctx context.Context) (job.Result, error)
}

var (
	loadConfigFunc = config.Load
	openDatabase   = db.Configure
	openMockFunc   = mock.New
	newRunnerFunc  = func(cfg config.Config, database *gorm.DB) (importRunner, error) {
		return job.FromConfig(cfg, database, nil)
	}
	stdout io.Writer = os.Stdout
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := loadConfigFunc()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applog.SetLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("set log level: %w", err)
	}

	var database *gorm.DB
	if cfg.Database.UseMock {
		database, err = openMockFunc(ctx)
	} else {
		database, err = openDatabase(cfg.Database)
	}
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	runner, err := newRunnerFunc(cfg, database)
	if err != nil {
		return fmt.Errorf("build import: %w", err)
	}

	result, err := runner.Run(ctx)
	if errors.Is(err, job.ErrJobRunning) {
		fmt.Fprintln(stdout, "import skipped: another run holds the lease")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "tag %s: %s\n", result.Tag, result.Detail())
	return nil
}
