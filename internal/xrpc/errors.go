package xrpc

import "fmt"

// AuthError reports rejected credentials at login. The message is the
// server's own and is surfaced verbatim to the user.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return e.Message
}

// SessionExpiredError means a refresh itself failed and the session has been
// cleared; the caller is logged out.
type SessionExpiredError struct {
	Err error
}

func (e *SessionExpiredError) Error() string {
	if e.Err == nil {
		return "session expired"
	}
	return fmt.Sprintf("session expired: %v", e.Err)
}

func (e *SessionExpiredError) Unwrap() error { return e.Err }

// NetworkError is a transport failure with no server response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError is a non-2xx response carrying the server's error code and
// message, e.g. {"error": "InvalidRequest", "message": "..."}.
type ProtocolError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProtocolError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s (status %d)", e.Code, e.StatusCode)
}

// QuotaError is an upload-limit denial, raised before any upload happens.
type QuotaError struct {
	Message string
}

func (e *QuotaError) Error() string {
	if e.Message == "" {
		return "upload limit reached"
	}
	return e.Message
}

// TimeoutError means a bounded polling loop exhausted its attempts.
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "timed out"
	}
	return e.Message
}
