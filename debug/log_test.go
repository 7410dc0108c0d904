package debug

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogDisabledWritesNothing(t *testing.T) {
	Disable()
	var buf bytes.Buffer
	Log("edit", "ignored %d", 1)
	assert.Empty(t, buf.String())
	assert.False(t, Enabled())
}

func TestLogFormat(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	Log("tick", "step=%d", 3)
	line := buf.String()
	assert.Contains(t, line, "tick")
	assert.True(t, strings.HasSuffix(line, "step=3\n"))
}

func TestLogEvery(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	for i := 0; i < 6; i++ {
		LogEvery(3, "every-test", "hit")
	}
	assert.Equal(t, 2, strings.Count(buf.String(), "hit (every 3"))
}

func TestEnableFile(t *testing.T) {
	Disable()
	path := filepath.Join(t.TempDir(), "nested", "debug.log")
	require.NoError(t, Enable(path))
	Log("config", "loaded")
	Disable()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Debug logging started")
	assert.Contains(t, string(data), "loaded")
}
