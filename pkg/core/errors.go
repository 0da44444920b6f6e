// pkg/core/errors.go
package core

import "errors"

// ErrEmptyStroke is returned by the compiler when a stroke has no
// points. The whole compile fails; no partial program is returned.
var ErrEmptyStroke = errors.New("stroke has no points")

// ErrAngleOutOfRange is returned when a paint angle falls outside the
// session's configured servo range. Out-of-range angles are rejected,
// never clamped.
var ErrAngleOutOfRange = errors.New("paint angle out of range")

// ErrToolpathNotFound is returned by storage backends when no archived
// toolpath exists under the requested name.
var ErrToolpathNotFound = errors.New("toolpath not found")
