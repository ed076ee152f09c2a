package log

import (
	"bytes"
	"testing"

	"github.com/kataras/golog"
	"github.com/stretchr/testify/assert"
)

func TestNewGologLogger(t *testing.T) {
	logger := NewGologLogger(golog.New())
	assert.NotNil(t, logger)
}

func TestGologLogger_Logging(t *testing.T) {
	glogger := golog.New()
	var buf bytes.Buffer
	glogger.SetOutput(&buf)

	logger := NewGologLogger(glogger)
	logger.SetLevel(LogLevelDebug)

	logger.Debug("debug: %s", "test")
	logger.Info("info: %d", 42)
	logger.Warn("warn: %v", map[string]string{"key": "value"})
	logger.Error("error: %f", 3.14)

	out := buf.String()
	assert.Contains(t, out, "debug: test")
	assert.Contains(t, out, "info: 42")
	assert.Contains(t, out, "error: 3.14")
}

func TestGologLogger_LevelFiltering(t *testing.T) {
	glogger := golog.New()
	var buf bytes.Buffer
	glogger.SetOutput(&buf)

	logger := NewGologLogger(glogger)
	logger.SetLevel(LogLevelError)

	logger.Debug("filtered debug")
	logger.Info("filtered info")
	logger.Error("kept error")

	out := buf.String()
	assert.NotContains(t, out, "filtered debug")
	assert.NotContains(t, out, "filtered info")
	assert.Contains(t, out, "kept error")
}

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCustomLogger(&buf, LogLevelWarn)

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("warned")
	logger.Error("errored")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "warned")
	assert.Contains(t, out, "errored")
}

func TestSetDefaultLogger(t *testing.T) {
	orig := GetDefaultLogger()
	defer SetDefaultLogger(orig)

	var buf bytes.Buffer
	SetDefaultLogger(NewCustomLogger(&buf, LogLevelInfo))

	Info("hello %s", "world")
	assert.Contains(t, buf.String(), "hello world")
}
