package debug

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureConsole(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetConsole(&buf)
	t.Cleanup(func() {
		Disable()
		SetVerbose(false)
		SetConsole(os.Stderr)
	})
	return &buf
}

func TestLevels(t *testing.T) {
	buf := captureConsole(t)

	Log("midi", "Bank is %d, program is %d", 0, 63)
	Debug("link", "Ping!")
	assert.Contains(t, buf.String(), "Bank is 0, program is 63")
	assert.NotContains(t, buf.String(), "Ping!")

	SetVerbose(true)
	Debug("link", "Ping!")
	assert.Contains(t, buf.String(), "Ping!")
}

func TestEnableWritesJSON(t *testing.T) {
	captureConsole(t)
	path := filepath.Join(t.TempDir(), "logs", "debug.log")

	require.NoError(t, Enable(path))
	Warn("queue", "queue full, dropping %s command", "midi")
	Disable()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "queue", entry["cat"])
	assert.Equal(t, "queue full, dropping midi command", entry["message"])
}

func TestLogEvery(t *testing.T) {
	buf := captureConsole(t)

	for i := 0; i < 7; i++ {
		LogEvery(3, "midi", "clock tick")
	}
	assert.Equal(t, 2, strings.Count(buf.String(), "clock tick"))
	assert.Contains(t, buf.String(), "count=6")
}
