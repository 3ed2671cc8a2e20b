package xrpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	t.Run("auth error surfaces the server message verbatim", func(t *testing.T) {
		err := &AuthError{Message: "Invalid identifier or password"}
		assert.Equal(t, "Invalid identifier or password", err.Error())
		assert.Equal(t, "authentication failed", (&AuthError{}).Error())
	})

	t.Run("session expired wraps its cause", func(t *testing.T) {
		cause := errors.New("refresh rejected")
		err := fmt.Errorf("resume: %w", &SessionExpiredError{Err: cause})

		var expired *SessionExpiredError
		assert.ErrorAs(t, err, &expired)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("network error wraps the transport failure", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := &NetworkError{Err: cause}
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("protocol error formats code and message", func(t *testing.T) {
		err := &ProtocolError{StatusCode: 400, Code: "InvalidRequest", Message: "bad cursor"}
		assert.Equal(t, "InvalidRequest: bad cursor", err.Error())

		bare := &ProtocolError{StatusCode: 502, Code: "UnknownError"}
		assert.Contains(t, bare.Error(), "502")
	})

	t.Run("quota and timeout have usable defaults", func(t *testing.T) {
		assert.Equal(t, "upload limit reached", (&QuotaError{}).Error())
		assert.Equal(t, "daily cap hit", (&QuotaError{Message: "daily cap hit"}).Error())
		assert.Equal(t, "timed out", (&TimeoutError{}).Error())
	})
}
