package scheduler

import "errors"

// ErrInvalidConfig is returned when a scheduler is constructed with unusable settings
var ErrInvalidConfig = errors.New("invalid scheduler configuration")
