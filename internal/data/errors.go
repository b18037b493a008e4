package data

import "errors"

// ErrNotFound is returned when a referenced record does not exist.
// Handlers translate it into a 404 response.
var ErrNotFound = errors.New("record not found")
