package enrichment

import (
	"fmt"
	"strings"
)

// Target controls which spans started inside a scope receive its enrichment.
// The zero value is not a valid target, so callers always choose one.
type Target int

const (
	// FirstChild applies the enrichment to the next span started while the scope is
	// active. The scope becomes inert afterwards but stays open until closed.
	FirstChild Target = iota + 1
	// AllChildren applies the enrichment to every span started while the scope is open.
	AllChildren
)

// String returns the canonical name of the target.
func (t Target) String() string {
	switch t {
	case FirstChild:
		return "first_child"
	case AllChildren:
		return "all_children"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

func (t Target) valid() bool {
	return t == FirstChild || t == AllChildren
}

// ParseTarget converts a configuration string into a Target.
// Both snake_case and the Go constant names are accepted, case-insensitively.
func ParseTarget(value string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "first_child", "firstchild":
		return FirstChild, nil
	case "all_children", "allchildren":
		return AllChildren, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidTarget, value)
	}
}
