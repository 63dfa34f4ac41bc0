package internal

import "fmt"

// AppError is the error envelope returned by the HTTP layer.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string { return e.Message }

func NewAppError(code int, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// ValidationError reports bad caller input: malformed period components,
// out-of-range days, start after end, unknown mood labels. Never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// QueryError wraps a storage failure during a read.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string { return "query " + e.Op + ": " + e.Err.Error() }
func (e *QueryError) Unwrap() error { return e.Err }

// AggregationError wraps a storage failure during an aggregation
// computation or write.
type AggregationError struct {
	Op  string
	Err error
}

func (e *AggregationError) Error() string { return "aggregation " + e.Op + ": " + e.Err.Error() }
func (e *AggregationError) Unwrap() error { return e.Err }
