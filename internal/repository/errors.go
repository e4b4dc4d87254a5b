package repository

import "errors"

// ErrNotFound indicates the requested record does not exist (or, for
// conditional updates, that the condition did not hold).
var ErrNotFound = errors.New("repository: not found")
