package logging

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// testLogger creates a logger that writes to a buffer for testing.
func testLogger() (*bolt.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	handler := bolt.NewJSONHandler(buf)
	logger := bolt.New(handler).SetLevel(bolt.TRACE)
	return logger, buf
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()

	if config.Level != "info" {
		t.Errorf("Level = %s, want info", config.Level)
	}
	if config.Format != "console" {
		t.Errorf("Format = %s, want console", config.Format)
	}
	if config.Output != os.Stdout {
		t.Errorf("Output = %v, want os.Stdout", config.Output)
	}
}

func TestProductionConfig(t *testing.T) {
	t.Parallel()

	config := ProductionConfig()

	if config.Format != "json" {
		t.Errorf("Format = %s, want json", config.Format)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bolt.Level
	}{
		{"trace", bolt.TRACE},
		{"debug", bolt.DEBUG},
		{"info", bolt.INFO},
		{"warn", bolt.WARN},
		{"error", bolt.ERROR},
		{"unknown", bolt.INFO},
		{"", bolt.INFO},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if result := parseLevel(tt.input); result != tt.expected {
				t.Errorf("parseLevel(%s) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	event := logger.Info()

	for _, f := range []Field{
		RequestID("req-1"),
		ClientIP("10.0.0.1"),
		Path("/extract-text"),
		Status(200),
		CacheKey("0123456789abcdef"),
		Cached(true),
		Remaining(42),
		Duration(1500 * time.Millisecond),
		TextLength(120),
		Confidence(0.87),
		EngineName("tesseract"),
		Component("api"),
		ErrorField(errors.New("boom")),
		Str("custom", "value"),
		Int("count", 3),
	} {
		event = f(event)
	}
	event.Msg("fields applied")

	out := buf.String()
	for _, want := range []string{
		"req-1", "10.0.0.1", "/extract-text", "cache_key", "duration_ms",
		"tesseract", "boom", "fields applied",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}

	// CacheKey truncates to a prefix.
	if strings.Contains(out, "0123456789abcdef") {
		t.Error("CacheKey should log only a prefix of the hash")
	}
}

func TestErrorFieldNil(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	ErrorField(nil)(logger.Info()).Msg("nil field")

	if strings.Contains(buf.String(), "error") {
		t.Errorf("nil error should add no field: %s", buf.String())
	}
}
