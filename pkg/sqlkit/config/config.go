// Package config loads key/value configuration for sqlkit from the process environment,
// .env files and an optional config.yaml.
package config

// Config is read by the datasources and the helper at construction time.
type Config interface {
	Get(string) string
	GetOrDefault(string, string) string
}

type logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
