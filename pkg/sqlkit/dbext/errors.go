package dbext

import (
	"errors"
	"fmt"
)

var (
	// ErrPlaceholderMismatch is returned, wrapped in a QueryError, when the number of ? placeholders
	// differs from the number of bind values. Nothing is sent to the database.
	ErrPlaceholderMismatch = errors.New("placeholder count does not match bind values")
	// ErrTypeMismatch is returned, wrapped in a QueryError, when a bind value cannot be converted to
	// its declared ParamType.
	ErrTypeMismatch = errors.New("bind value does not match declared type")
	// ErrNotTwoColumns is returned by FetchPairs for results that do not have exactly two columns.
	ErrNotTwoColumns = errors.New("fetch pairs requires exactly two result columns")
	// ErrEmptyIdentifier is returned, wrapped in a QueryError, by Update without identifier
	// columns. Use UpdateWhere to change every row.
	ErrEmptyIdentifier = errors.New("update requires at least one identifier column")
	// ErrNoResultCache is returned by ExecuteCacheQuery when the helper was built without WithCache.
	ErrNoResultCache = errors.New("no result cache configured")

	errNilConnection = errors.New("connection is nil")
)

// QueryError reports a statement that could not be prepared or executed.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("error executing query %q: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// ArgumentError reports an invalid LIMIT count or offset.
type ArgumentError struct {
	Argument string
	Value    int
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("LIMIT argument %s=%d is not valid", e.Argument, e.Value)
}

// ValidationError is returned by QueryIgnoreError when the failure matched one of its exclusions.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ErrorMatcher classifies an error for QueryIgnoreError.
type ErrorMatcher func(error) bool

// Is matches errors for which errors.Is(err, target) holds.
func Is(target error) ErrorMatcher {
	return func(err error) bool {
		return errors.Is(err, target)
	}
}

// KindOf matches errors whose chain contains a T, e.g. KindOf[*mysql.MySQLError]().
func KindOf[T error]() ErrorMatcher {
	return func(err error) bool {
		var target T

		return errors.As(err, &target)
	}
}
