package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

var (
	std = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})

	logFile *os.File
)

// Init configures the process-wide logger. With debug enabled, a log file is
// opened in addition to stderr when logPath is non-empty.
func Init(debug bool, logPath string) error {
	if debug {
		std.SetLevel(log.DebugLevel)
	}

	if debug && logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return err
		}

		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}

		logFile = f
		std.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	return nil
}

// Close closes the log file if open.
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func Debugf(format string, v ...any) {
	std.Debugf(format, v...)
}

func Infof(format string, v ...any) {
	std.Infof(format, v...)
}

func Warnf(format string, v ...any) {
	std.Warnf(format, v...)
}

func Errorf(format string, v ...any) {
	std.Errorf(format, v...)
}
