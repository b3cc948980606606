package enrichment

import "errors"

var (
	// ErrNilAction is returned by Begin when no enrichment action is supplied.
	ErrNilAction = errors.New("enrichment: action cannot be nil")

	// ErrInvalidTarget is returned when a scope target is neither FirstChild nor AllChildren.
	ErrInvalidTarget = errors.New("enrichment: invalid scope target")

	// ErrScopeReleased signals misuse of a scope handle: releasing it twice, releasing
	// it on a stack it does not belong to, or anchoring enrichment on a closed scope.
	ErrScopeReleased = errors.New("enrichment: release of unknown or already-released scope")
)
