package models

import "errors"

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrStatusConflict indicates a conditional update matched no document,
// meaning another caller changed the record's status first.
var ErrStatusConflict = errors.New("record status changed concurrently")
