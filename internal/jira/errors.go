package jira

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrAuthentication marks rejected credentials. Unlike a single project's
// access denial this is fatal for the whole run.
var ErrAuthentication = errors.New("jira: authentication rejected")

// StatusError reports a non-2xx response from the Jira API.
type StatusError struct {
	StatusCode int
	Endpoint   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jira: %s returned status %d", e.Endpoint, e.StatusCode)
}

// IsAccessDenied reports whether err is a 401/403 response.
func IsAccessDenied(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
}

// IsTransient reports whether err is worth retrying: throttling, a
// server-side failure, or a network-level error.
func IsTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
