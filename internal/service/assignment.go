package service

import (
	"fmt"

	"github.com/noah-isme/pantry-sync-api/internal/models"
	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
)

// AssignmentState is the lifecycle position of one family's appointment
// within a distribution.
type AssignmentState int

const (
	StateUnset AssignmentState = iota
	StateTentative
	StateConfirmed
	StateFulfilled
	StateCancelled
)

func (s AssignmentState) String() string {
	switch s {
	case StateTentative:
		return "tentative"
	case StateConfirmed:
		return "confirmed"
	case StateFulfilled:
		return "fulfilled"
	case StateCancelled:
		return "cancelled"
	default:
		return "unset"
	}
}

// AssignmentRequest is a proposed slot for one family.
type AssignmentRequest struct {
	Distribution string
	FamilyName   string
	Day          *int
	Time         *string
}

// StateOf derives the persisted state of a fulfillment row. A proposal that
// has not been saved yet is Tentative and never reaches the store.
func StateOf(f *models.Fulfillment) AssignmentState {
	switch {
	case f == nil:
		return StateUnset
	case f.Slot() == nil:
		return StateCancelled
	case f.Fulfilled:
		return StateFulfilled
	default:
		return StateConfirmed
	}
}

// ValidateAndAssign checks a proposed slot against the distribution grid and
// returns the accepted slot, or nil when the request clears the assignment.
// A day without a time clears the assignment.
func ValidateAndAssign(grid Grid, req AssignmentRequest) (*models.Slot, error) {
	if req.Day != nil && (*req.Day < 1 || *req.Day > models.DaysPerDistribution) {
		return nil, appErrors.Clone(appErrors.ErrUnknownDay, fmt.Sprintf("day %d is not a distribution day", *req.Day))
	}
	if req.Time == nil || *req.Time == "" {
		return nil, nil
	}
	if req.Day == nil {
		return nil, appErrors.Clone(appErrors.ErrUnknownDay, "appointment time given without a day")
	}

	slot := NormalizeSlot(*req.Time)
	if !grid.Contains(*req.Day, slot) {
		return nil, appErrors.Clone(appErrors.ErrOutOfRangeSlot,
			fmt.Sprintf("%s is not an appointment slot on day %d of %s", *req.Time, *req.Day, req.Distribution))
	}
	return &models.Slot{Day: *req.Day, Time: slot}, nil
}

// CheckFulfilledTransition rejects marking a record fulfilled unless the
// persisted record already holds a slot and the new record keeps one.
func CheckFulfilledTransition(prior *models.Fulfillment, next *models.Slot, fulfilled bool) error {
	if !fulfilled {
		return nil
	}
	if StateOf(prior) != StateConfirmed && StateOf(prior) != StateFulfilled {
		return appErrors.Clone(appErrors.ErrNotConfirmed, "appointment has no confirmed slot to fulfill")
	}
	if next == nil {
		return appErrors.Clone(appErrors.ErrNotConfirmed, "cannot fulfill and clear the appointment at once")
	}
	return nil
}

// CancelAssignment returns the record to persist for a cancellation. It keeps
// the notes, clears the slot and the fulfillment status, and is idempotent.
func CancelAssignment(prior *models.Fulfillment, distribution, family string) models.Fulfillment {
	next := models.Fulfillment{Distribution: distribution, FamilyName: family}
	if prior != nil {
		next.Notes = prior.Notes
	}
	next.SetSlot(nil)
	next.Fulfilled = false
	next.FulfillmentTime = nil
	return next
}
