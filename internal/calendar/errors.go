package calendar

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// OnboardingRequiredError reports that an owner's calendar is not reachable by
// the service account, usually because it was never shared with it.
type OnboardingRequiredError struct {
	Owner string
	Err   error
}

func (e *OnboardingRequiredError) Error() string {
	return fmt.Sprintf("calendar for %s is not shared with this service", e.Owner)
}

func (e *OnboardingRequiredError) Unwrap() error { return e.Err }

// IsOnboardingRequired reports whether err (or any error it wraps) is an
// *OnboardingRequiredError and returns it.
func IsOnboardingRequired(err error) (*OnboardingRequiredError, bool) {
	var onboard *OnboardingRequiredError
	if errors.As(err, &onboard) {
		return onboard, true
	}
	return nil, false
}

// classify wraps a provider error for owner. A 404 means the calendar id is
// unknown to the service account and becomes an *OnboardingRequiredError.
func classify(owner, action string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return &OnboardingRequiredError{Owner: owner, Err: err}
	}
	return fmt.Errorf("failed to %s for %s: %w", action, owner, err)
}

// ErrEventNotFound is returned when an event id does not exist on an owner's calendar.
var ErrEventNotFound = errors.New("event not found")

func classifyEvent(owner, eventID, action string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return fmt.Errorf("%w: %s on %s", ErrEventNotFound, eventID, owner)
	}
	return fmt.Errorf("failed to %s for %s: %w", action, owner, err)
}
