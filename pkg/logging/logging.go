// Package logging configures the logrus logger that traces requests sent to
// the mapping service.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where traces go and how much is traced
type Options struct {
	// Verbose enables debug traces for every request
	Verbose bool
	// File, when set, receives a copy of every trace in a rotated log file
	File string
	// Output defaults to os.Stderr
	Output io.Writer
}

// New builds a logger from opts. The returned close function flushes and
// closes the log file, if any.
func New(opts Options) (*logrus.Logger, func() error) {
	logger := logrus.New()

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	logger.SetLevel(logrus.WarnLevel)
	if opts.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	closeFn := func() error { return nil }
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		out = io.MultiWriter(out, file)
		closeFn = file.Close
	}
	logger.SetOutput(out)

	return logger, closeFn
}
