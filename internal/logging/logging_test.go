package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew verifies construction at each supported level, with unknown
// levels falling back instead of failing.
func TestNew(t *testing.T) {
	t.Parallel()

	for _, level := range []string{"debug", "info", "warn", "error", "bogus", ""} {
		logger, err := New(level)
		require.NoError(t, err, level)
		require.NotNil(t, logger, level)
	}
}

// TestNop verifies the discard logger does not panic.
func TestNop(t *testing.T) {
	t.Parallel()
	logger := Nop()
	assert.NotPanics(t, func() {
		logger.Debugf("d %d", 1)
		logger.Infof("i")
		logger.Warnf("w")
		logger.Errorf("e")
	})
}
