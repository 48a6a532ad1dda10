// Package lifecycle validates inspection status transitions:
// draft → completed → {approved, rejected}, with rejected reopenable to draft
// by a reviewer. Pure; the service applies the side effects.
package lifecycle

import (
	"github.com/hotelaria/opshub/internal/models"
	"github.com/hotelaria/opshub/internal/types"
)

var transitions = map[string][]string{
	models.StatusDraft:     {models.StatusCompleted},
	models.StatusCompleted: {models.StatusApproved, models.StatusRejected},
	models.StatusRejected:  {models.StatusDraft},
}

// Validate returns an InvalidTransitionError unless from → to is a permitted
// transition.
func Validate(from, to string) error {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return &types.InvalidTransitionError{From: from, To: to}
}

// StampsCompletion reports whether entering to records the completion time.
// Completing is the only transition that stamps a timestamp.
func StampsCompletion(to string) bool {
	return to == models.StatusCompleted
}

// ClearsCompletion reports whether entering to erases the completion time.
// Reopening to draft drops the stale stamp so a draft never carries one.
func ClearsCompletion(to string) bool {
	return to == models.StatusDraft
}

// ReviewerRole reports whether role carries review authority.
func ReviewerRole(role string) bool {
	return role == models.RoleAdmin || role == models.RoleSupervisor
}

// Authorize checks that the actor may request the from → to transition.
// Completing is permitted to the inspection's own inspector (reviewers may
// also complete on their behalf); review outcomes and reopening require
// review authority.
func Authorize(actorRole, actorUserID, inspectorUserID, to string) error {
	if to == models.StatusCompleted {
		if actorUserID == inspectorUserID || ReviewerRole(actorRole) {
			return nil
		}
		return &types.ForbiddenError{Reason: "only the assigned inspector can complete this inspection"}
	}
	if !ReviewerRole(actorRole) {
		return &types.ForbiddenError{Reason: "review authority required for status " + to}
	}
	return nil
}

// Editable reports whether item fields may still mutate in the given status.
// Approved and rejected inspections are frozen.
func Editable(status string) bool {
	return status == models.StatusDraft || status == models.StatusCompleted
}
