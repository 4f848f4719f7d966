package tracker

import "errors"

// ErrAlreadyRunning is returned when a run trigger finds another run in
// progress. The caller may retry later; triggers are never queued.
var ErrAlreadyRunning = errors.New("tracker: a run is already in progress")

// ErrDuplicateSource is returned when a source with the same URL already exists.
var ErrDuplicateSource = errors.New("tracker: source with this URL already exists")

// ErrInvalidInput is returned when source input fails validation.
var ErrInvalidInput = errors.New("tracker: invalid input")

// ErrSourceNotFound is returned when an operation names an unknown source.
var ErrSourceNotFound = errors.New("tracker: source not found")
