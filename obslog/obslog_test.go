package obslog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weldorm/dbconf"
)

func newTestLogger(t *testing.T, slow, ordinary dbconf.LogLevel) *Logger {
	t.Helper()
	return New(&dbconf.Config{
		LogFile:      filepath.Join(t.TempDir(), "weldorm.log"),
		LogLevel:     ordinary,
		SlowLogLevel: slow,
	})
}

func TestNilLoggerRecordIsNoOp(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Record(context.Background(), "SELECT 1", time.Second, true, nil)
	})
}

func TestRecordDoesNotPanicForSlowStatement(t *testing.T) {
	l := newTestLogger(t, dbconf.LogLevelInfo, dbconf.LogLevelOff)
	assert.NotPanics(t, func() {
		l.Record(context.Background(), "SELECT * FROM big_table", SlowQueryThreshold+time.Millisecond, false, nil)
	})
}

func TestRecordDoesNotPanicForVerboseOrdinaryStatement(t *testing.T) {
	l := newTestLogger(t, dbconf.LogLevelOff, dbconf.LogLevelDebug)
	assert.NotPanics(t, func() {
		l.Record(context.Background(), "SELECT 1", time.Millisecond, true, errors.New("boom"))
	})
}

func TestLevelOfMapsKnownLevels(t *testing.T) {
	_, ok := levelOf(dbconf.LogLevelOff)
	require.False(t, ok)
	_, ok = levelOf(dbconf.LogLevelInfo)
	require.True(t, ok)
	_, ok = levelOf(dbconf.LogLevelDebug)
	require.True(t, ok)
}
