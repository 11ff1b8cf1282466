package plugin

import "errors"

// ErrNilManifest is returned when a nil manifest is validated.
var ErrNilManifest = errors.New("manifest is nil")
