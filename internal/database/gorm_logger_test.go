package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newBufferedLogger(level logger.LogLevel) (*queryLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := &queryLogger{
		log:   slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
		level: level,
		slow:  slowQueryThreshold,
	}
	return l, &buf
}

func TestQueryLogger_Trace(t *testing.T) {
	query := func() (string, int64) { return "SELECT 1", 1 }
	ctx := context.Background()

	t.Run("fast query at warn level is quiet", func(t *testing.T) {
		l, buf := newBufferedLogger(logger.Warn)
		l.Trace(ctx, time.Now(), query, nil)
		assert.Empty(t, buf.String())
	})

	t.Run("record not found is not an error", func(t *testing.T) {
		l, buf := newBufferedLogger(logger.Warn)
		l.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
		assert.Empty(t, buf.String())
	})

	t.Run("failure is logged with the error", func(t *testing.T) {
		l, buf := newBufferedLogger(logger.Warn)
		l.Trace(ctx, time.Now(), query, errors.New("syntax error"))
		assert.Contains(t, buf.String(), "query failed")
		assert.Contains(t, buf.String(), "syntax error")
	})

	t.Run("slow query", func(t *testing.T) {
		l, buf := newBufferedLogger(logger.Warn)
		l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
		assert.Contains(t, buf.String(), "slow query")
	})

	t.Run("silent", func(t *testing.T) {
		l, buf := newBufferedLogger(logger.Warn)
		l.LogMode(logger.Silent).Trace(ctx, time.Now(), query, errors.New("boom"))
		assert.Empty(t, buf.String())
	})
}
