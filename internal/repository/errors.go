// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
package repository

import "errors"

// ErrVersionConflict is returned when a draft save observes that the page
// version changed between read and write, meaning a concurrent editor
// saved first. Handlers should translate this into an HTTP 409 response
// so the losing writer reloads instead of silently overwriting.
var ErrVersionConflict = errors.New("version conflict")
