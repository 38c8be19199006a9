// Package logger provides structured logging functionality for the stbak tool.
//
// Features:
//   - Multiple log levels (TRACE, DEBUG, INFO, WARN, ERROR)
//   - Component-based filtering
//   - Multiple output formats (text, JSON, color)
//   - Thread-safe operations
//   - Configurable output and formatting
//
// Usage:
//
//	// Get a component logger
//	log := logger.WithComponent(logger.ComponentDownloader)
//
//	// Log messages with different levels
//	log.Info("Starting download", map[string]interface{}{
//		"shortcode": "abc123",
//		"size": 1024,
//	})
//
//	// Configure global logger
//	config := logger.DefaultConfig()
//	config.Level = logger.DEBUG
//	config.Format = logger.FormatJSON
//	logger.SetGlobalLogger(logger.New(config))
//
// Components:
//   - ComponentApp: Main application logs
//   - ComponentBrowser: Login browser automation logs
//   - ComponentAPI: Listing and resolution API logs
//   - ComponentDownloader: Download process logs
//   - ComponentClient: HTTP client logs
//
// Configuration can also come from the environment: STBAK_LOG_LEVEL,
// STBAK_LOG_FORMAT, STBAK_LOG_OUTPUT, STBAK_LOG_TIMESTAMP and
// STBAK_LOG_COMPONENTS (comma-separated component names to enable).
package logger
