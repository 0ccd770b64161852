package aggregate

import "fmt"

// VolumeListingError means a whole volume root could not be listed.
type VolumeListingError struct {
	Label string
	Path  string
	Err   error
}

func (e *VolumeListingError) Error() string {
	return fmt.Sprintf("list volume %s (%s): %v", e.Label, e.Path, e.Err)
}

func (e *VolumeListingError) Unwrap() error { return e.Err }

// EntryResolutionError means a single child's canonical path could not be
// resolved, e.g. a dangling symlink.
type EntryResolutionError struct {
	Label string
	Name  string
	Path  string
	Err   error
}

func (e *EntryResolutionError) Error() string {
	return fmt.Sprintf("resolve entry %s on volume %s (%s): %v", e.Name, e.Label, e.Path, e.Err)
}

func (e *EntryResolutionError) Unwrap() error { return e.Err }
