package logger

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected zerolog.Level
	}{
		{"debug level", "debug", zerolog.DebugLevel},
		{"info level", "info", zerolog.InfoLevel},
		{"warn level", "warn", zerolog.WarnLevel},
		{"error level", "error", zerolog.ErrorLevel},
		{"upper case", "DEBUG", zerolog.DebugLevel},
		{"invalid level", "chatty", zerolog.InfoLevel},
		{"default level", "", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetForTesting()
			var buf bytes.Buffer

			Setup(Config{
				Level:      tt.level,
				Output:     &buf,
				TimeFormat: time.RFC3339,
			})

			l := Get()
			require.NotNil(t, l)
			assert.Equal(t, tt.expected, l.GetLevel())
		})
	}
}

func TestSetupOnlyOnce(t *testing.T) {
	ResetForTesting()
	var first, second bytes.Buffer

	Setup(Config{Level: "debug", Output: &first})
	Setup(Config{Level: "error", Output: &second})

	assert.Equal(t, zerolog.DebugLevel, Get().GetLevel())

	ForceSetup(Config{Level: "error", Output: &second})
	assert.Equal(t, zerolog.ErrorLevel, Get().GetLevel())
}

func TestFieldsAreWritten(t *testing.T) {
	ResetForTesting()
	var buf bytes.Buffer
	Setup(Config{Level: "debug", Format: FormatJSON, Output: &buf})

	Get().WithFields(map[string]interface{}{"book_id": "abc"}).Info("lookup done", map[string]interface{}{
		"score": 4,
	})

	out := buf.String()
	assert.Contains(t, out, `"book_id":"abc"`)
	assert.Contains(t, out, `"score":4`)
	assert.Contains(t, out, `"message":"lookup done"`)
}

func TestLevelFiltering(t *testing.T) {
	ResetForTesting()
	var buf bytes.Buffer
	Setup(Config{Level: "warn", Format: FormatJSON, Output: &buf})

	Get().Info("hidden")
	Get().Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestContextRoundTrip(t *testing.T) {
	ResetForTesting()
	var buf bytes.Buffer
	Setup(Config{Level: "debug", Format: FormatJSON, Output: &buf})

	child := Get().WithFields(map[string]interface{}{"run": "r1"})
	ctx := NewContext(context.Background(), child)

	assert.Same(t, child, FromContext(ctx))
	assert.Same(t, Get(), FromContext(context.Background()))
}

func TestParseLogFormat(t *testing.T) {
	assert.Equal(t, FormatConsole, ParseLogFormat("console"))
	assert.Equal(t, FormatConsole, ParseLogFormat(" Text "))
	assert.Equal(t, FormatJSON, ParseLogFormat("json"))
	assert.Equal(t, FormatJSON, ParseLogFormat("anything"))
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info("ignored")
		l.Warn("ignored")
		l.Error("ignored")
		l.Debug("ignored")
	})
	assert.Equal(t, zerolog.NoLevel, l.GetLevel())
}
