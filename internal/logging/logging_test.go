package logging

import (
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Level
		ok       bool
	}{
		{
			name:     "Debug",
			input:    "debug",
			expected: LevelDebug,
			ok:       true,
		},
		{
			name:     "Info",
			input:    "info",
			expected: LevelInfo,
			ok:       true,
		},
		{
			name:     "Warn",
			input:    "warn",
			expected: LevelWarn,
			ok:       true,
		},
		{
			name:     "Error",
			input:    "error",
			expected: LevelError,
			ok:       true,
		},
		{
			name:     "Case insensitive",
			input:    "DEBUG",
			expected: LevelDebug,
			ok:       true,
		},
		{
			name:     "Warning alias",
			input:    "warning",
			expected: LevelWarn,
			ok:       true,
		},
		{
			name:     "Surrounding whitespace",
			input:    "  info  ",
			expected: LevelInfo,
			ok:       true,
		},
		{
			name:     "Unknown falls back to info",
			input:    "verbose",
			expected: LevelInfo,
			ok:       false,
		},
		{
			name:     "Empty falls back to info",
			input:    "",
			expected: LevelInfo,
			ok:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, %v)",
					tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	original := GetLevel()
	defer SetLevel(original)

	SetLevel(LevelError)
	if got := GetLevel(); got != LevelError {
		t.Errorf("GetLevel() after SetLevel(LevelError) = %v, want %v", got, LevelError)
	}
	if IsDebugEnabled() {
		t.Error("IsDebugEnabled() = true at error level")
	}

	SetLevel(LevelDebug)
	if !IsDebugEnabled() {
		t.Error("IsDebugEnabled() = false at debug level")
	}
}

func TestLevelConstants(t *testing.T) {
	// Level comparisons drive the "should this print" checks, so the
	// ordering is load-bearing.
	levels := []Level{LevelDebug, LevelInfo, LevelWarn, LevelError}
	for i := 0; i < len(levels)-1; i++ {
		if levels[i] >= levels[i+1] {
			t.Errorf("log levels should be in ascending order: %v >= %v", levels[i], levels[i+1])
		}
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(42), "unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level(%d).String() = %q, want %q", int(tt.level), got, tt.expected)
		}
	}
}

// TestLoggingFunctions tests that logging functions don't panic at any level.
func TestLoggingFunctions(t *testing.T) {
	original := GetLevel()
	defer SetLevel(original)

	for _, lvl := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		SetLevel(lvl)
		Debug("test message")
		Info("test %s %d", "message", 123)
		Warn("test message")
		Error("test %s", "message")
		Printf("plain %s", "message")
		Println("plain message")
	}
}
