package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration
type Config struct {
	Verbose    bool
	OutputFile string // Path to log file (empty = stderr only)
	MaxSizeMB  int    // Max size in megabytes before rotation (default: 10)
	MaxBackups int    // Number of old log files to keep (default: 3)
	JSONFormat bool
	Output     io.Writer // Console writer; defaults to os.Stderr
}

// New creates a logrus logger for the given configuration.
// The returned closer flushes and closes the rotating file, if any.
func New(config Config) (*logrus.Logger, io.Closer, error) {
	if config.MaxSizeMB == 0 {
		config.MaxSizeMB = 10
	}
	if config.MaxBackups == 0 {
		config.MaxBackups = 3
	}
	console := config.Output
	if console == nil {
		console = os.Stderr
	}

	logger := logrus.New()
	if config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	if config.JSONFormat {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: !config.Verbose})
	}

	var closer io.Closer = nopCloser{}
	writers := []io.Writer{console}

	if config.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0755); err != nil {
			return nil, nil, err
		}
		rotating := &lumberjack.Logger{
			Filename:   config.OutputFile,
			MaxSize:    config.MaxSizeMB,
			MaxBackups: config.MaxBackups,
		}
		writers = append(writers, rotating)
		closer = rotating
	}

	logger.SetOutput(io.MultiWriter(writers...))
	return logger, closer, nil
}

// Discard returns a logger that drops everything. Handy for tests and library callers.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
