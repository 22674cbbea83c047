package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// NotFound builds the 404 variant used for absent boards, threads and posts.
// Absence is a normal negative result, not an operational failure.
func NotFound(what string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: what + " not found", StatusCode: http.StatusNotFound}
}

// Check if err is instance of T for custom error types
func Is[T error](err error) bool {
	if _, ok := err.(T); ok {
		return true
	}
	return false
}

// CleanupError reports file-rack deletions that failed after the owning rows
// were already committed away. The row deletion stands; callers may log and
// move on, or hand the ids to a reconciliation job.
type CleanupError struct {
	FileIds []string
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("failed to clean up rack files: %s", strings.Join(e.FileIds, ", "))
}
