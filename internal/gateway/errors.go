package gateway

import (
	"errors"
	"fmt"

	"github.com/google/go-github/v62/github"
)

var (
	// ErrUnauthorized means the token was rejected or lacks the scopes
	// required by the traffic endpoints.
	ErrUnauthorized = errors.New("the token was rejected by the GitHub API")
	// ErrNotFound means the repository or its traffic data is not
	// accessible, typically for lack of push permission.
	ErrNotFound = errors.New("the repository traffic data is not accessible")
	// ErrUnavailable covers every other non-2xx response.
	ErrUnavailable = errors.New("the GitHub API request failed")
)

// classify maps a go-github error to one of the sentinel errors above so
// callers can branch with errors.Is. Transport-level failures pass
// through unwrapped.
func classify(err error) error {
	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) || ghErr.Response == nil {
		return err
	}
	switch ghErr.Response.StatusCode {
	case 401, 403:
		return fmt.Errorf("%w: %s", ErrUnauthorized, ghErr.Message)
	case 404:
		return fmt.Errorf("%w: %s", ErrNotFound, ghErr.Message)
	default:
		return fmt.Errorf("%w: HTTP %d: %s", ErrUnavailable, ghErr.Response.StatusCode, ghErr.Message)
	}
}
