package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf
	config.Level = INFO

	logger := New(config)
	compLogger := logger.WithComponent(ComponentApp)

	// Test that DEBUG messages are filtered out
	compLogger.Debug("This should not appear")
	compLogger.Info("This should appear")
	compLogger.Warn("This should appear")
	compLogger.Error("This should appear")

	output := buf.String()
	if strings.Contains(output, "This should not appear") {
		t.Error("DEBUG message should be filtered out")
	}
	if !strings.Contains(output, "This should appear") {
		t.Error("INFO/WARN/ERROR messages should appear")
	}
}

func TestLogger_Components(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf
	config.Components[ComponentDownloader] = false

	logger := New(config)
	appLogger := logger.WithComponent(ComponentApp)
	downloaderLogger := logger.WithComponent(ComponentDownloader)

	appLogger.Info("App message")
	downloaderLogger.Info("Downloader message")

	output := buf.String()
	if !strings.Contains(output, "App message") {
		t.Error("App message should appear")
	}
	if strings.Contains(output, "Downloader message") {
		t.Error("Downloader message should be filtered out")
	}
}

func TestLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf
	config.Format = FormatJSON

	logger := New(config)
	compLogger := logger.WithComponent(ComponentBrowser)

	compLogger.Info("Test message", map[string]interface{}{
		"key": "value",
	})

	output := buf.String()
	if !strings.Contains(output, `"level"`) {
		t.Error("JSON format should contain level field")
	}
	if !strings.Contains(output, `"component":"browser"`) {
		t.Error("JSON format should contain component field")
	}
	if !strings.Contains(output, `"message":"Test message"`) {
		t.Error("JSON format should contain message field")
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf

	logger := New(config)
	compLogger := logger.WithComponent(ComponentApp)

	compLogger.Info("Test message", map[string]interface{}{
		"shortcode": "abc123",
		"bytes":     1024,
	})

	output := buf.String()
	if !strings.Contains(output, "shortcode=abc123") {
		t.Error("Fields should be rendered in text format")
	}
	if !strings.Contains(output, "bytes=1024") {
		t.Error("Fields should be rendered in text format")
	}
}

func TestEnvironmentConfig(t *testing.T) {
	t.Setenv("STBAK_LOG_LEVEL", "DEBUG")
	t.Setenv("STBAK_LOG_FORMAT", "json")
	t.Setenv("STBAK_LOG_COMPONENTS", "api, downloader")

	config := EnvironmentConfig()

	if config.Level != "DEBUG" {
		t.Errorf("Expected level DEBUG, got %s", config.Level)
	}
	if config.Format != "json" {
		t.Errorf("Expected format json, got %s", config.Format)
	}
	if !config.Components["api"] || !config.Components["downloader"] {
		t.Errorf("Expected api and downloader enabled, got %v", config.Components)
	}
	if config.Components["app"] {
		t.Error("Explicit component list should replace defaults")
	}
}

func TestLogConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LogConfig)
		wantErr bool
	}{
		{
			name:    "Defaults are valid",
			mutate:  func(*LogConfig) {},
			wantErr: false,
		},
		{
			name:    "Unknown level",
			mutate:  func(c *LogConfig) { c.Level = "LOUD" },
			wantErr: true,
		},
		{
			name:    "Unknown format",
			mutate:  func(c *LogConfig) { c.Format = "xml" },
			wantErr: true,
		},
		{
			name:    "Unknown output",
			mutate:  func(c *LogConfig) { c.Output = "telegraph" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultLogConfig()
			tt.mutate(config)
			err := config.ValidateConfig()
			if tt.wantErr && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
