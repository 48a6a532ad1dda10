package types

import "fmt"

// VersionConflictPrefix marks optimistic concurrency failures. Handlers translate
// any error message carrying it into an HTTP 409 with versionError set.
const VersionConflictPrefix = "E_VERSION"

type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// ValidationError reports malformed input, identifying the offending field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Message)
}

// NotFoundError reports an unknown entity id.
type NotFoundError struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Entity, e.ID)
}

// ForbiddenError reports an actor lacking role, location, or department scope.
type ForbiddenError struct {
	Reason string `json:"reason"`
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}

// InvalidTransitionError reports a lifecycle violation with both states.
type InvalidTransitionError struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

// PartialWriteError reports a multi-step write that failed after partial
// persistence. With the transactional create this must not occur; if it does
// it is surfaced, never swallowed.
type PartialWriteError struct {
	InspectionID uint64 `json:"inspection_id"`
	Stage        string `json:"stage"`
	Err          error  `json:"-"`
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write on inspection %d at stage %q: %v", e.InspectionID, e.Stage, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}
