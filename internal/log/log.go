// Package log sets up the zerolog logger from config.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds a logger writing to the configured sinks: "console" for
// stderr, "file" for a size-rotated log file.
func New(level string, writers []string, file string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var sinks []io.Writer
	for _, w := range writers {
		switch w {
		case "console":
			sinks = append(sinks, zerolog.ConsoleWriter{Out: os.Stderr})
		case "file":
			sinks = append(sinks, &lumberjack.Logger{
				Filename:   file,
				MaxSize:    10, // MB
				MaxBackups: 3,
			})
		}
	}
	if len(sinks) == 0 {
		sinks = append(sinks, zerolog.ConsoleWriter{Out: os.Stderr})
	}

	return zerolog.New(zerolog.MultiLevelWriter(sinks...)).
		Level(lvl).
		With().Timestamp().Logger()
}
