package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}

func TestGetLogLevelFromEnv(t *testing.T) {
	t.Setenv("ORCHDASH_LOG_LEVEL", "")

	t.Setenv("DEBUG", "")
	assert.Equal(t, LevelInfo, GetLogLevelFromEnv(false))
	assert.Equal(t, LevelDebug, GetLogLevelFromEnv(true))

	t.Setenv("DEBUG", "0")
	assert.Equal(t, LevelInfo, GetLogLevelFromEnv(true))

	t.Setenv("DEBUG", "true")
	assert.Equal(t, LevelDebug, GetLogLevelFromEnv(false))

	t.Setenv("ORCHDASH_LOG_LEVEL", "WARN")
	assert.Equal(t, LevelWarn, GetLogLevelFromEnv(false))
}

func TestConfigureWriter(t *testing.T) {
	defer Configure(LevelInfo, false)

	var buf bytes.Buffer
	ConfigureWriter(LevelWarn, false, &buf)

	Infof("hidden %d", 1)
	Warnf("shown %d", 2)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown 2")
}

func TestWithField(t *testing.T) {
	defer Configure(LevelInfo, false)

	var buf bytes.Buffer
	ConfigureWriter(LevelInfo, false, &buf)

	log := WithField("conn", "c1")
	log.Info().Msg("connected")

	assert.Contains(t, buf.String(), `"conn":"c1"`)
	assert.Contains(t, buf.String(), "connected")
}
