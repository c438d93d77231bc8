package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/chidiwilliams/scopeheap/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
	assert.Equal(t, runtime.FreeDisplaced, config.RebindPolicy())
	assert.True(t, config.LeakCheck)
}

func TestParseConfig(t *testing.T) {
	config, err := ParseConfig([]byte(`
rebind: reject
trace_scopes: true
log:
  level: debug
  format: json
`))
	require.NoError(t, err)
	assert.Equal(t, runtime.RejectOwnedRebind, config.RebindPolicy())
	assert.True(t, config.TraceScopes)
	assert.True(t, config.LeakCheck, "unset fields keep their defaults")

	var buf bytes.Buffer
	config.NewLogger(&buf).Debug("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestParseConfigEmpty(t *testing.T) {
	config, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestParseConfigInvalid(t *testing.T) {
	tests := []struct {
		name   string
		source string
		err    string
	}{
		{"rebind", "rebind: leak", `invalid rebind policy "leak"`},
		{"level", "log: {level: loud}", `invalid log level "loud"`},
		{"format", "log: {format: xml}", `invalid log format "xml"`},
		{"unknown field", "colour: blue", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.source))
			require.Error(t, err)
			if tt.err != "" {
				assert.EqualError(t, err, tt.err)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("leak_check: false\n"), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, config.LeakCheck)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestTextLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := DefaultConfig().NewLogger(&buf)
	logger.Debug("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}
