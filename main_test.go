package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// syncCounter records Sync calls on the wrapped core.
type syncCounter struct {
	zapcore.Core
	syncs *int
}

func (c syncCounter) With(fields []zapcore.Field) zapcore.Core {
	return syncCounter{Core: c.Core.With(fields), syncs: c.syncs}
}

func (c syncCounter) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c syncCounter) Sync() error {
	*c.syncs++
	return c.Core.Sync()
}

func TestFinishFlushesLogger(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		code  int
		level zapcore.Level
	}{
		{"clean shutdown", nil, 0, zapcore.InfoLevel},
		{"server error", errors.New("listen tcp: address already in use"), 1, zapcore.ErrorLevel},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			syncs := 0
			logger := zap.New(syncCounter{Core: core, syncs: &syncs})

			assert.Equal(t, tc.code, finish(logger, tc.err))
			assert.Equal(t, 1, syncs)
			if assert.Equal(t, 1, logs.Len()) {
				assert.Equal(t, tc.level, logs.All()[0].Level)
			}
		})
	}
}
