// Package logging provides the leveled logger used across sqlkit. Entries are written as JSON lines,
// or as colored single lines when the output is a terminal.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/term"
)

const fileMode = 0644

// PrettyPrint is implemented by structured messages that know how to render themselves on a terminal.
type PrettyPrint interface {
	PrettyPrint(writer io.Writer)
}

// Logger is the logging contract shared by the datasources and the helper.
type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Log(args ...any)
	Logf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Notice(args ...any)
	Noticef(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	ChangeLevel(level Level)
}

type logger struct {
	level      Level
	normalOut  io.Writer
	errorOut   io.Writer
	isTerminal bool
	lock       chan struct{}
}

type logEntry struct {
	Level   Level     `json:"level"`
	Time    time.Time `json:"time"`
	Message any       `json:"message"`
	TraceID string    `json:"trace_id,omitempty"`
	Caller  string    `json:"caller,omitempty"`
}

// NewLogger creates a logger writing INFO and below to stdout and errors to stderr.
func NewLogger(level Level) Logger {
	l := &logger{
		level:     level,
		normalOut: os.Stdout,
		errorOut:  os.Stderr,
		lock:      make(chan struct{}, 1),
	}

	l.isTerminal = checkIfTerminal(l.normalOut)

	return l
}

// NewFileLogger writes every entry to the file at path. An empty path discards output.
func NewFileLogger(path string) Logger {
	l := &logger{
		normalOut: io.Discard,
		errorOut:  io.Discard,
		lock:      make(chan struct{}, 1),
	}

	if path == "" {
		return l
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, fileMode)
	if err != nil {
		return l
	}

	l.normalOut = f
	l.errorOut = f

	return l
}

func checkIfTerminal(w io.Writer) bool {
	switch v := w.(type) {
	case *os.File:
		return term.IsTerminal(int(v.Fd()))
	default:
		return false
	}
}

func (l *logger) logfWithSkip(skip int, level Level, format string, args ...any) {
	if level < l.level {
		return
	}

	out := l.normalOut
	if level >= ERROR {
		out = l.errorOut
	}

	entry := logEntry{
		Level: level,
		Time:  time.Now(),
	}

	if _, file, line, ok := runtime.Caller(skip); ok {
		entry.Caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	args, entry.TraceID = extractTraceID(args)

	switch {
	case len(args) == 1 && format == "":
		entry.Message = args[0]
	case len(args) != 1 && format == "":
		entry.Message = args
	case format != "":
		entry.Message = fmt.Sprintf(format, args...)
	}

	l.lock <- struct{}{}
	defer func() { <-l.lock }()

	if l.isTerminal {
		l.prettyPrint(entry, out)
	} else {
		_ = json.NewEncoder(out).Encode(entry)
	}
}

func (l *logger) logf(level Level, format string, args ...any) {
	// skip=3: runtime.Caller -> logfWithSkip -> logf -> Debug/Info -> user code
	l.logfWithSkip(3, level, format, args...)
}

func extractTraceID(args []any) ([]any, string) {
	for i, arg := range args {
		m, ok := arg.(map[string]any)
		if !ok {
			continue
		}

		id, ok := m["__trace_id__"].(string)
		if !ok {
			continue
		}

		rest := make([]any, 0, len(args)-1)
		rest = append(rest, args[:i]...)
		rest = append(rest, args[i+1:]...)

		return rest, id
	}

	return args, ""
}

func (l *logger) prettyPrint(e logEntry, out io.Writer) {
	fmt.Fprintf(out, "\u001B[38;5;%dm%s\u001B[0m [%s]", e.Level.color(), e.Level.String()[0:4], e.Time.Format(time.TimeOnly))

	if e.TraceID != "" {
		fmt.Fprintf(out, " \u001B[38;5;8m%s\u001B[0m", e.TraceID)
	}

	fmt.Fprint(out, " ")

	if fn, ok := e.Message.(PrettyPrint); ok {
		fn.PrettyPrint(out)
		return
	}

	fmt.Fprintf(out, "%v\n", e.Message)
}

func (l *logger) Debug(args ...any)            { l.logf(DEBUG, "", args...) }
func (l *logger) Debugf(f string, args ...any) { l.logf(DEBUG, f, args...) }
func (l *logger) Log(args ...any)              { l.logf(INFO, "", args...) }
func (l *logger) Logf(f string, args ...any)   { l.logf(INFO, f, args...) }
func (l *logger) Info(args ...any)             { l.logf(INFO, "", args...) }
func (l *logger) Infof(f string, args ...any)  { l.logf(INFO, f, args...) }
func (l *logger) Notice(args ...any)           { l.logf(NOTICE, "", args...) }
func (l *logger) Noticef(f string, args ...any) { l.logf(NOTICE, f, args...) }
func (l *logger) Warn(args ...any)             { l.logf(WARN, "", args...) }
func (l *logger) Warnf(f string, args ...any)  { l.logf(WARN, f, args...) }
func (l *logger) Error(args ...any)            { l.logf(ERROR, "", args...) }
func (l *logger) Errorf(f string, args ...any) { l.logf(ERROR, f, args...) }

func (l *logger) Fatal(args ...any) {
	l.logf(FATAL, "", args...)
	os.Exit(1)
}

func (l *logger) Fatalf(f string, args ...any) {
	l.logf(FATAL, f, args...)
	os.Exit(1)
}

func (l *logger) ChangeLevel(level Level) {
	l.level = level
}
