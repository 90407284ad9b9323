package logging

import (
	"bytes"
	"strings"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota + 1
	INFO
	NOTICE
	WARN
	ERROR
	FATAL
)

const (
	normalColor = 36
	noticeColor = 33
	warnColor   = 93
	errorColor  = 31
	debugColor  = 90
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case NOTICE:
		return "NOTICE"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return ""
	}
}

//nolint:gocritic // levels are written as JSON strings
func (l Level) MarshalJSON() ([]byte, error) {
	buffer := bytes.NewBufferString(`"`)
	buffer.WriteString(l.String())
	buffer.WriteString(`"`)

	return buffer.Bytes(), nil
}

func (l Level) color() uint {
	switch l {
	case ERROR, FATAL:
		return errorColor
	case WARN:
		return warnColor
	case NOTICE:
		return noticeColor
	case INFO:
		return normalColor
	case DEBUG:
		return debugColor
	default:
		return normalColor
	}
}

// GetLevelFromString maps LOG_LEVEL values to a Level. Unknown values fall back to INFO.
func GetLevelFromString(level string) Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "NOTICE":
		return NOTICE
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}
