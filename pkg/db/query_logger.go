package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/bakery-backend/pkg/logger"
)

// QueryLogger routes GORM's statement log into the service logger. Failed
// statements log at error, statements slower than the threshold at warn and,
// in info mode, everything else at debug. Missing rows and unique violations
// are outcomes the repositories translate, so they stay at debug.
type QueryLogger struct {
	logg  *logger.Logger
	slow  time.Duration
	level gormlogger.LogLevel
}

func NewQueryLogger(logg *logger.Logger, slow time.Duration) *QueryLogger {
	return &QueryLogger{logg: logg, slow: slow, level: gormlogger.Warn}
}

func (q *QueryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *q
	clone.level = level
	return &clone
}

func (q *QueryLogger) Info(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Info {
		q.logg.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *QueryLogger) Warn(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Warn {
		q.logg.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *QueryLogger) Error(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Error {
		q.logg.Error(ctx, fmt.Sprintf(msg, args...), nil)
	}
}

func (q *QueryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	fields := func() context.Context {
		sql, rows := fc()
		return q.logg.WithFields(ctx, map[string]any{
			"sql":         sql,
			"rows":        rows,
			"duration_ms": float64(elapsed.Microseconds()) / 1000,
		})
	}

	switch {
	case err != nil && (errors.Is(err, gorm.ErrRecordNotFound) || IsUniqueViolation(err, "")):
		if q.level >= gormlogger.Info {
			q.logg.Debug(fields(), "db.query.expected_error")
		}
	case err != nil && q.level >= gormlogger.Error:
		q.logg.Error(fields(), "db.query.failed", err)
	case q.slow > 0 && elapsed > q.slow && q.level >= gormlogger.Warn:
		q.logg.Warn(fields(), "db.query.slow")
	case q.level >= gormlogger.Info:
		q.logg.Debug(fields(), "db.query")
	}
}
