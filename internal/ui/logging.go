package ui

import (
	"fmt"
	"io"
	"os"
)

type Logger struct {
	Debug bool
	// Out defaults to stdout.
	Out io.Writer
}

func NewLogger(debug bool) *Logger {
	return &Logger{Debug: debug}
}

func (l *Logger) printf(prefix, format string, args ...any) {
	out := l.Out
	if out == nil {
		out = os.Stdout
	}

	fmt.Fprintf(out, prefix+format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.Debug {
		l.printf("[DEBUG] ", format, args...)
	}
}

func (l *Logger) Infof(format string, args ...any) {
	l.printf("[INFO] ", format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.printf("[WARN] ", format, args...)
}

func (l *Logger) Successf(format string, args ...any) {
	l.printf("[DONE] ", format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.printf("[ERROR] ", format, args...)
}
