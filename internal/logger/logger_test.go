package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("json output", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := NewWithWriter(&Config{Level: "debug", Format: "json"}, &buf)
		require.NoError(t, err)

		log.Debug().Int("total", 50).Msg("paginate")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "debug", entry["level"])
		assert.Equal(t, "paginate", entry["service"])
		assert.Equal(t, "paginate", entry["message"])
		assert.Equal(t, float64(50), entry["total"])
		assert.Contains(t, entry, "time")
	})

	t.Run("level filters events", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := NewWithWriter(&Config{Level: "warn", Format: "json"}, &buf)
		require.NoError(t, err)

		log.Info().Msg("hidden")
		assert.Zero(t, buf.Len())
		log.Warn().Msg("shown")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("defaults", func(t *testing.T) {
		cfg := &Config{}
		var buf bytes.Buffer
		log, err := NewWithWriter(cfg, &buf)
		require.NoError(t, err)

		assert.Equal(t, Config{Level: "info", Format: "console", Output: "stderr"}, *cfg)
		log.Info().Msg("console line")
		assert.Contains(t, buf.String(), "console line")
		assert.False(t, json.Valid(buf.Bytes()))
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewWithWriter(nil, &bytes.Buffer{})
		assert.NoError(t, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewWithWriter(&Config{Level: "chatty"}, &bytes.Buffer{})
		assert.Error(t, err)

		_, err = NewWithWriter(&Config{Format: "xml"}, &bytes.Buffer{})
		assert.Error(t, err)
	})
}

func TestNew(t *testing.T) {
	_, err := New(&Config{Output: "stdout", Format: "json"})
	assert.NoError(t, err)

	_, err = New(&Config{Output: "file"})
	assert.Error(t, err)
}
