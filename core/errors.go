package core

import "errors"

// ErrNotFound is returned (possibly wrapped) when a session, context or stored
// artifact does not exist. Use errors.Is to test for it.
var ErrNotFound = errors.New("not found")

// ErrStepLimit is returned by StepLimiter once the step budget is exhausted.
var ErrStepLimit = errors.New("step limit exceeded")
