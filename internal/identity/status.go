package identity

import (
	"errors"
	"net/http"
)

// Status maps an identity error to the status and message returned to clients.
// Client errors keep the provider's status; anything else is a bad gateway.
// Transport details never reach the message.
func Status(err error) (int, string) {
	var perr *Error
	if errors.As(err, &perr) {
		status := perr.StatusCode
		if status < 400 || status > 499 {
			status = http.StatusBadGateway
		}
		return status, perr.Message
	}
	if errors.Is(err, ErrInvalidSession) {
		return http.StatusUnauthorized, ErrInvalidSession.Error()
	}
	return http.StatusBadGateway, ErrUnavailable.Error()
}
