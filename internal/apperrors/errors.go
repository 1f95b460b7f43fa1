package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates the authenticated user is not allowed to perform the action.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthorized indicates missing or invalid authentication.
var ErrUnauthorized = errors.New("unauthorized")

// Workflow errors. Each maps to a distinct corrective action for the caller,
// so handlers must surface them individually rather than as a generic failure.

// ErrUnknownCategory indicates an exeat category outside the configured policy table.
var ErrUnknownCategory = errors.New("unknown exeat category")

// ErrInvalidTransition indicates a decision was submitted against a request
// that is already in a terminal state, or whose status moved since it was read.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrDuplicateDecision indicates the stage being decided already has a ledger record.
var ErrDuplicateDecision = errors.New("stage already decided")

// ErrConflict indicates an optimistic concurrency conflict at the storage layer.
// The caller should re-load the request and re-validate before retrying.
var ErrConflict = errors.New("storage conflict")
