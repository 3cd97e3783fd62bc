// Package logging configures the logrus logger arbor writes to. The terminal
// belongs to the UI, so entries only ever go to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Options configures the logger built by New.
type Options struct {
	// Path is the log file. Empty discards all output unless Level is debug,
	// in which case DefaultPath is used.
	Path string
	// Level is a logrus level name.
	Level string
}

// DefaultPath is $XDG_STATE_HOME/arbor/arbor.log, falling back to
// ~/.local/state/arbor/arbor.log.
func DefaultPath() string {
	state := os.Getenv("XDG_STATE_HOME")
	if state == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "arbor.log")
		}
		state = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(state, "arbor", "arbor.log")
}

// New builds a logger from options. The returned closer releases the log
// file and is never nil.
func New(options Options) (*logrus.Logger, io.Closer, error) {
	level := logrus.InfoLevel
	if options.Level != "" {
		lvl, err := logrus.ParseLevel(options.Level)
		if err != nil {
			return nil, nopCloser{}, fmt.Errorf("failed to parse log level: %w", err)
		}
		level = lvl
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	path := options.Path
	if path == "" && level >= logrus.DebugLevel {
		path = DefaultPath()
	}
	if path == "" {
		log.SetOutput(io.Discard)
		return log, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, nopCloser{}, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nopCloser{}, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	return log, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
