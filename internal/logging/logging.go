// ABOUTME: Logger setup for the player and server binaries
// ABOUTME: TUI mode logs only to the file, otherwise to file and stdout
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options configures Setup
type Options struct {
	// Path of the log file, opened for append
	Path string
	// Level is one of debug, info, warn, error
	Level string
	// Echo also writes to stdout. Leave false while a TUI owns the terminal.
	Echo bool
	// JSON selects the JSON formatter
	JSON bool
}

// Setup returns a logger writing to the configured outputs. The returned
// closer closes the log file.
func Setup(opts Options) (*logrus.Logger, io.Closer, error) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	f, err := os.OpenFile(opts.Path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening log file: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(level)

	if opts.Echo {
		logger.SetOutput(io.MultiWriter(os.Stdout, f))
	} else {
		logger.SetOutput(f)
	}

	if opts.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			DisableColors: true,
		})
	}

	return logger, f, nil
}
