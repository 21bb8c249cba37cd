package reconcile

import "errors"

// ErrInvalidSpec indicates the declared spec cannot be acted on: identity
// fields are missing, or a create is implied without name and URL.
var ErrInvalidSpec = errors.New("invalid monitor spec")

// ErrAmbiguous indicates a name/URL search matched more than one remote
// monitor. The caller must disambiguate with an explicit id.
var ErrAmbiguous = errors.New("monitor search is ambiguous")

// ErrNotFound indicates a monitor expected to exist could not be found,
// either because a resolved id turned out stale or because the desired state
// requires an existing monitor and none matches.
var ErrNotFound = errors.New("monitor not found")
