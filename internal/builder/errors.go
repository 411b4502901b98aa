package builder

import "errors"

var (
	// ErrOutputDir is returned when an output directory cannot be created.
	ErrOutputDir = errors.New("cannot create output directory")
	// ErrMissingAncestor is returned by Bread when an ancestor path has no
	// registered title.
	ErrMissingAncestor = errors.New("no title registered for breadcrumb ancestor")
	// ErrEncoding is returned for unknown encoding labels and for text that
	// does not decode or encode cleanly.
	ErrEncoding = errors.New("encoding error")
)
