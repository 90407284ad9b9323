/*
Package datasource contains the data sources sqlkit can connect to: SQL databases and the Redis
instance used as a query result cache.
*/
package datasource

// Logger is the subset of logging.Logger the datasources write to.
type Logger interface {
	Debug(args ...any)
	Debugf(pattern string, args ...any)
	Info(args ...any)
	Infof(pattern string, args ...any)
	Error(args ...any)
	Errorf(pattern string, args ...any)
	Warn(args ...any)
	Warnf(pattern string, args ...any)
}
