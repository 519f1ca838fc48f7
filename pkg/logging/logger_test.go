package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus", ""} {
		logger := New(level)
		assert.NotNil(t, logger)
		assert.NotNil(t, logger.Logger)
	}
}

func TestWithNilReceiver(t *testing.T) {
	var l *Logger
	got := l.With("component", "test")
	assert.NotNil(t, got)
	assert.NotPanics(t, func() { got.Info("ok") })
}
