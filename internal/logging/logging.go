// Package logging wires the process-wide standard logger to stdout and a
// rotated log file.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup points the standard logger at stdout and, if file is non-empty, a
// size-rotated file as well. Called once at startup before anything logs.
func Setup(file string) {
	log.SetFlags(log.LstdFlags)

	if file == "" {
		log.SetOutput(os.Stdout)
		return
	}

	rotated := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    100, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotated))
}
