package addons

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no entry matches the requested name.
	ErrNotFound = errors.New("addon not found")
	// ErrNoGamePath is returned when an operation needs a game root and none is set.
	ErrNoGamePath = errors.New("game path is not set")
)

// DiscoveryError reports that the package source directory could not be listed.
type DiscoveryError struct {
	Dir string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("cannot list addons in %s (check path or permissions): %v", e.Dir, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// MirrorError reports a failed filesystem side effect for one addon.
type MirrorError struct {
	Name    string
	AddonID string
	Op      string
	Err     error
}

func (e *MirrorError) Error() string {
	return fmt.Sprintf("failed to %s %s (%s): %v", e.Op, e.Name, e.AddonID, e.Err)
}

func (e *MirrorError) Unwrap() error {
	return e.Err
}
