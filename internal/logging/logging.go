// Package logging builds the application logger from configuration.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"

	"travelrag/internal/config"
)

const timeFormat = "15:04:05"

// New creates an arbor logger with the writers and level named in cfg.
// Unknown outputs are ignored; with no usable output the logger stays silent.
func New(cfg config.LoggingConfig) arbor.ILogger {
	logger := arbor.NewLogger()

	for _, output := range cfg.Output {
		switch output {
		case "stdout", "console":
			logger = logger.WithConsoleWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeConsole,
				TimeFormat: timeFormat,
				OutputType: models.OutputFormatLogfmt,
			})
		case "file":
			path := cfg.File
			if path == "" {
				path = filepath.Join("logs", "travelrag.log")
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to create log directory: %v\n", err)
				continue
			}
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   path,
				TimeFormat: timeFormat,
				MaxSize:    50 * 1024 * 1024,
				MaxBackups: 3,
				OutputType: models.OutputFormatLogfmt,
			})
		}
	}

	return logger.WithLevelFromString(cfg.Level)
}

// Quiet returns a copy of cfg that writes only to a file, for full-screen UIs
// where console output would corrupt the display.
func Quiet(cfg config.LoggingConfig) config.LoggingConfig {
	cfg.Output = []string{"file"}
	return cfg
}
