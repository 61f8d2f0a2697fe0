package gallery

import (
	"errors"
	"fmt"
	"net/http"

	"pixgallery/pkg/normalize"
)

var (
	// ErrCredentialRejected matches failures that point at a bad or missing API key.
	ErrCredentialRejected = errors.New("credential rejected")

	// ErrNotAuthenticated is returned when a call needs a credential and none is set.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUnexpectedContent is returned when the proxy relays non-JSON content where a listing was expected.
	ErrUnexpectedContent = errors.New("unexpected non-JSON content")

	// ErrAlbumNotFound is returned when an album lookup yields nothing.
	ErrAlbumNotFound = errors.New("album not found")

	// ErrProxyUnreachable is returned when the proxy cannot be reached or answers garbage.
	ErrProxyUnreachable = errors.New("proxy unreachable")

	// ErrSuperseded is returned by a fetch whose result was discarded because a newer one started.
	ErrSuperseded = errors.New("fetch superseded")
)

// APIError is a failure envelope answered by the proxy.
type APIError struct {
	Status  int
	Code    normalize.Code
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("proxy error: %d %s", e.Status, http.StatusText(e.Status))
	}
	return e.Message
}

// Is reports credential failures as ErrCredentialRejected.
func (e *APIError) Is(target error) bool {
	if target != ErrCredentialRejected {
		return false
	}
	return e.Code == normalize.CodeUpstreamHTMLReceived ||
		e.Status == http.StatusUnauthorized ||
		e.Status == http.StatusForbidden
}

// Hint turns an error into the banner line shown to the user.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCredentialRejected):
		return "The API key was rejected. Check it and log in again."
	case errors.Is(err, ErrNotAuthenticated):
		return "No API key stored. Run the login command first."
	case errors.Is(err, ErrProxyUnreachable):
		return "The gallery proxy could not be reached."
	default:
		return err.Error()
	}
}
