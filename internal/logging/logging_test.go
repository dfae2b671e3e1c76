package logging

import (
	"bytes"
	"testing"

	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Configure("debug", &buf))
	defer Configure("", nil)

	NewLogger("capture/test").Debug("frame not ready")
	assert.Contains(t, buf.String(), "frame not ready")
	assert.Contains(t, buf.String(), "capture/test")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, logging.LogLevelWarn, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
