package lifecycle_test

import (
	"errors"
	"testing"

	"github.com/hotelaria/opshub/internal/lifecycle"
	"github.com/hotelaria/opshub/internal/models"
	"github.com/hotelaria/opshub/internal/types"
)

func TestValidateAllowedTransitions(t *testing.T) {
	allowed := [][2]string{
		{models.StatusDraft, models.StatusCompleted},
		{models.StatusCompleted, models.StatusApproved},
		{models.StatusCompleted, models.StatusRejected},
		{models.StatusRejected, models.StatusDraft},
	}
	for _, pair := range allowed {
		if err := lifecycle.Validate(pair[0], pair[1]); err != nil {
			t.Errorf("Expected %s -> %s to be allowed, got %v", pair[0], pair[1], err)
		}
	}
}

func TestValidateRejectedTransitions(t *testing.T) {
	rejected := [][2]string{
		{models.StatusDraft, models.StatusApproved},
		{models.StatusDraft, models.StatusRejected},
		{models.StatusApproved, models.StatusDraft},
		{models.StatusApproved, models.StatusCompleted},
		{models.StatusApproved, models.StatusRejected},
		{models.StatusCompleted, models.StatusDraft},
		{models.StatusCompleted, models.StatusCompleted},
		{models.StatusRejected, models.StatusApproved},
	}
	for _, pair := range rejected {
		err := lifecycle.Validate(pair[0], pair[1])
		if err == nil {
			t.Errorf("Expected %s -> %s to be rejected", pair[0], pair[1])
			continue
		}
		var transitionErr *types.InvalidTransitionError
		if !errors.As(err, &transitionErr) {
			t.Errorf("Expected InvalidTransitionError for %s -> %s, got %T", pair[0], pair[1], err)
		}
	}
}

func TestStampsCompletion(t *testing.T) {
	if !lifecycle.StampsCompletion(models.StatusCompleted) {
		t.Error("Expected completing to stamp the completion time")
	}
	for _, status := range []string{models.StatusDraft, models.StatusApproved, models.StatusRejected} {
		if lifecycle.StampsCompletion(status) {
			t.Errorf("Expected %s not to stamp the completion time", status)
		}
	}
}

func TestClearsCompletion(t *testing.T) {
	if !lifecycle.ClearsCompletion(models.StatusDraft) {
		t.Error("Expected reopening to draft to clear the completion time")
	}
	for _, status := range []string{models.StatusCompleted, models.StatusApproved, models.StatusRejected} {
		if lifecycle.ClearsCompletion(status) {
			t.Errorf("Expected %s not to clear the completion time", status)
		}
	}
}

func TestAuthorizeCompletion(t *testing.T) {
	// The assigned inspector completes their own inspection.
	if err := lifecycle.Authorize(models.RoleInspector, "user-1", "user-1", models.StatusCompleted); err != nil {
		t.Errorf("Expected inspector to complete own inspection, got %v", err)
	}

	// A different inspector may not.
	err := lifecycle.Authorize(models.RoleInspector, "user-2", "user-1", models.StatusCompleted)
	var forbidden *types.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Errorf("Expected ForbiddenError for foreign inspector, got %v", err)
	}

	// Reviewers may complete on the inspector's behalf.
	if err := lifecycle.Authorize(models.RoleSupervisor, "user-2", "user-1", models.StatusCompleted); err != nil {
		t.Errorf("Expected supervisor to complete on behalf, got %v", err)
	}
}

func TestAuthorizeReviewOutcomes(t *testing.T) {
	for _, to := range []string{models.StatusApproved, models.StatusRejected, models.StatusDraft} {
		err := lifecycle.Authorize(models.RoleInspector, "user-1", "user-1", to)
		var forbidden *types.ForbiddenError
		if !errors.As(err, &forbidden) {
			t.Errorf("Expected ForbiddenError for inspector requesting %s, got %v", to, err)
		}

		if err := lifecycle.Authorize(models.RoleAdmin, "user-2", "user-1", to); err != nil {
			t.Errorf("Expected admin to request %s, got %v", to, err)
		}
	}
}

func TestEditable(t *testing.T) {
	if !lifecycle.Editable(models.StatusDraft) || !lifecycle.Editable(models.StatusCompleted) {
		t.Error("Expected draft and completed inspections to remain editable")
	}
	if lifecycle.Editable(models.StatusApproved) || lifecycle.Editable(models.StatusRejected) {
		t.Error("Expected approved and rejected inspections to be frozen")
	}
}
