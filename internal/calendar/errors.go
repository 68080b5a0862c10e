package calendar

import (
	"errors"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"
)

// IsInvalidSyncToken reports whether err is the API telling us that a stored
// sync token has expired and a full resync is required.
func IsInvalidSyncToken(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusGone
}

// IsNotFound reports whether err is a 404 from the API, e.g. for an event
// that was deleted between listing and patching.
func IsNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

// IsTransient reports whether err is worth retrying: rate limiting, server
// side errors, or network failures.
func IsTransient(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500
	}
	var nerr net.Error
	return errors.As(err, &nerr)
}
