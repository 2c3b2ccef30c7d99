package repo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormLogger routes GORM's statement log to zerolog. It prefers the
// request-scoped logger carried by the context so statements share the
// request id of the HTTP request that issued them.
//
// Failures log at error, statements slower than the threshold at warn, and
// every statement at debug when the mode is logger.Info. Not-found and
// unique-violation errors are expected outcomes and are not logged.
type GormLogger struct {
	level logger.LogLevel
	slow  time.Duration
}

// NewGormLogger returns a GormLogger in logger.Warn mode.
func NewGormLogger(slow time.Duration) *GormLogger {
	return &GormLogger{level: logger.Warn, slow: slow}
}

// LogMode implements logger.Interface.
func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	c := *l
	c.level = level
	return &c
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Info {
		from(ctx).Info().Msgf(msg, args...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Warn {
		from(ctx).Warn().Msgf(msg, args...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Error {
		from(ctx).Error().Msgf(msg, args...)
	}
}

// Trace implements logger.Interface. The SQL text is only logged at debug
// since bound values are interpolated into it.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= logger.Error && !expected(err):
		_, rows := fc()
		from(ctx).Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Msg("sql failed")
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		_, rows := fc()
		from(ctx).Warn().Dur("elapsed", elapsed).Dur("threshold", l.slow).Int64("rows", rows).Msg("slow sql")
	case l.level >= logger.Info:
		sql, rows := fc()
		from(ctx).Debug().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("sql")
	}
}

func expected(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || isDuplicate(err)
}

func from(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	return &log.Logger
}
