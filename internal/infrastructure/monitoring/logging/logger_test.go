package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestLoggerEmitsFields(t *testing.T) {
	log, logs := newObservedLogger(zapcore.DebugLevel)

	log.Info("cycle complete",
		String("attribute", "Ruritania"),
		Int("alerts", 1),
		Duration("took", 250*time.Millisecond))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "cycle complete", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "Ruritania", fields["attribute"])
	assert.EqualValues(t, 1, fields["alerts"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	log, logs := newObservedLogger(zapcore.WarnLevel)

	log.Debug("dropped")
	log.Info("dropped too")
	log.Warn("kept")
	log.Error("kept too")

	assert.Equal(t, 2, logs.Len())
}

func TestWithAttachesFieldsToChildren(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)

	child := log.With(String("source", "gnews"))
	child.Info("fetched")
	log.Info("parent untouched")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "gnews", entries[0].ContextMap()["source"])
	assert.NotContains(t, entries[1].ContextMap(), "source")
}

func TestNamed(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)
	log.Named("engine").Info("hello")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "engine", logs.All()[0].LoggerName)
}

func TestErrField(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)
	log.Error("fetch failed", Err(errors.New("boom")))
	assert.Equal(t, "boom", logs.All()[0].ContextMap()["error"])

	log.Error("no cause", Err(nil))
	assert.Equal(t, "<nil>", logs.All()[1].ContextMap()["error"])
}

func TestNewLoggerDefaults(t *testing.T) {
	log, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	assert.NotPanics(t, func() {
		log.Debug("a")
		log.Info("b")
		log.Warn("c")
		log.Error("d")
		log.With(String("k", "v")).Named("n").Info("e")
	})
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	log, _ := newObservedLogger(zapcore.InfoLevel)
	SetDefault(log)
	assert.Equal(t, log, Default())

	// nil is ignored
	SetDefault(nil)
	assert.Equal(t, log, Default())
}

//Personal.AI order the ending
