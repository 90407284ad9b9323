package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type loggerWithSkip interface {
	logfWithSkip(skip int, level Level, format string, args ...any)
}

// ContextLogger wraps a base Logger and adds the trace ID of the span active in ctx, if any,
// to every entry it writes.
type ContextLogger struct {
	base    Logger
	traceID string
}

// NewContextLogger binds base to the span found in ctx.
func NewContextLogger(ctx context.Context, base Logger) *ContextLogger {
	var traceID string

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		traceID = sc.TraceID().String()
	}

	return &ContextLogger{base: base, traceID: traceID}
}

// TraceID returns the bound trace id, empty when ctx carried no valid span.
func (l *ContextLogger) TraceID() string {
	return l.traceID
}

func (l *ContextLogger) withTraceInfo(args ...any) []any {
	if l.traceID != "" {
		return append(args, map[string]any{"__trace_id__": l.traceID})
	}

	return args
}

func (l *ContextLogger) logWithSkip(level Level, format string, args ...any) {
	if ls, ok := l.base.(loggerWithSkip); ok {
		// skip=3: runtime.Caller -> logfWithSkip -> logWithSkip -> Debug/Info -> user code
		ls.logfWithSkip(3, level, format, l.withTraceInfo(args...)...)
		return
	}

	switch level {
	case DEBUG:
		l.dispatch(format, args, l.base.Debug, l.base.Debugf)
	case INFO:
		l.dispatch(format, args, l.base.Info, l.base.Infof)
	case NOTICE:
		l.dispatch(format, args, l.base.Notice, l.base.Noticef)
	case WARN:
		l.dispatch(format, args, l.base.Warn, l.base.Warnf)
	case ERROR:
		l.dispatch(format, args, l.base.Error, l.base.Errorf)
	case FATAL:
		l.dispatch(format, args, l.base.Fatal, l.base.Fatalf)
	}
}

func (l *ContextLogger) dispatch(format string, args []any, plain func(...any), formatted func(string, ...any)) {
	if format == "" {
		plain(l.withTraceInfo(args...)...)
		return
	}

	formatted(format, l.withTraceInfo(args...)...)
}

func (l *ContextLogger) Debug(args ...any)             { l.logWithSkip(DEBUG, "", args...) }
func (l *ContextLogger) Debugf(f string, args ...any)  { l.logWithSkip(DEBUG, f, args...) }
func (l *ContextLogger) Log(args ...any)               { l.logWithSkip(INFO, "", args...) }
func (l *ContextLogger) Logf(f string, args ...any)    { l.logWithSkip(INFO, f, args...) }
func (l *ContextLogger) Info(args ...any)              { l.logWithSkip(INFO, "", args...) }
func (l *ContextLogger) Infof(f string, args ...any)   { l.logWithSkip(INFO, f, args...) }
func (l *ContextLogger) Notice(args ...any)            { l.logWithSkip(NOTICE, "", args...) }
func (l *ContextLogger) Noticef(f string, args ...any) { l.logWithSkip(NOTICE, f, args...) }
func (l *ContextLogger) Warn(args ...any)              { l.logWithSkip(WARN, "", args...) }
func (l *ContextLogger) Warnf(f string, args ...any)   { l.logWithSkip(WARN, f, args...) }
func (l *ContextLogger) Error(args ...any)             { l.logWithSkip(ERROR, "", args...) }
func (l *ContextLogger) Errorf(f string, args ...any)  { l.logWithSkip(ERROR, f, args...) }
func (l *ContextLogger) Fatal(args ...any)             { l.logWithSkip(FATAL, "", args...) }
func (l *ContextLogger) Fatalf(f string, args ...any)  { l.logWithSkip(FATAL, f, args...) }
func (l *ContextLogger) ChangeLevel(level Level)       { l.base.ChangeLevel(level) }
