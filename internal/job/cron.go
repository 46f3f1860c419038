package job

import (
	"context"

	"github.com/robfig/cron/v3"

	applog "foodgram/internal/log"
)

// Scheduler registers and drives periodic functions. *cron.Cron satisfies it.
type Scheduler interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
	Start()
	Stop() context.Context
}

// NewScheduler returns a cron scheduler that logs through the application
// logger and skips a tick while the previous invocation is still running.
func NewScheduler() *cron.Cron {
	logger := cronLogger{}
	return cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	applog.Debug(context.Background(), "cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	applog.Error(context.Background(), "cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
