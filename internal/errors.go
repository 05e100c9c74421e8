package gudgeontop

import (
	"errors"
	"net/http"
)

type errStatusNotOK int

func (e errStatusNotOK) Error() string {
	return "non-2xx HTTP status code: " + http.StatusText(int(e))
}

type errMalformedResponse string

func (e errMalformedResponse) Error() string {
	return "malformed response: " + string(e)
}

// IsNoData reports whether err means the backend answered but had nothing
// usable. Such a poll is rescheduled at the normal interval, not the backoff.
func IsNoData(err error) bool {
	var malformed errMalformedResponse
	return errors.As(err, &malformed)
}
