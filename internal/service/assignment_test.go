package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pantry-sync-api/internal/models"
	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
)

func dayWindowGrid(day int, first, last string) Grid {
	var days [7]models.DayBounds
	days[day-1] = bounds(first, last)
	return GenerateGrid(days)
}

func TestValidateAndAssignRejectsEarlySlot(t *testing.T) {
	grid := dayWindowGrid(1, "08:00", "22:00")

	_, err := ValidateAndAssign(grid, AssignmentRequest{Distribution: "2024-05-06", FamilyName: "Smith", Day: intPtr(1), Time: strPtr("07:45")})

	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrOutOfRangeSlot)
}

func TestValidateAndAssignAcceptsEveryGridSlot(t *testing.T) {
	grid := dayWindowGrid(4, "08:00", "22:00")

	for _, slot := range grid.Day(4) {
		got, err := ValidateAndAssign(grid, AssignmentRequest{Day: intPtr(4), Time: strPtr(slot)})
		require.NoError(t, err, slot)
		assert.Equal(t, &models.Slot{Day: 4, Time: slot}, got)
	}

	got, err := ValidateAndAssign(grid, AssignmentRequest{Day: intPtr(4), Time: strPtr("09:15:00")})
	require.NoError(t, err)
	assert.Equal(t, "09:15", got.Time)

	_, err = ValidateAndAssign(grid, AssignmentRequest{Day: intPtr(4), Time: strPtr("09:10")})
	assert.ErrorIs(t, err, appErrors.ErrOutOfRangeSlot)
	_, err = ValidateAndAssign(grid, AssignmentRequest{Day: intPtr(3), Time: strPtr("09:15")})
	assert.ErrorIs(t, err, appErrors.ErrOutOfRangeSlot)
}

func TestValidateAndAssignUnknownDay(t *testing.T) {
	grid := dayWindowGrid(1, "08:00", "09:00")

	for _, day := range []int{0, 8, -1} {
		_, err := ValidateAndAssign(grid, AssignmentRequest{Day: intPtr(day), Time: strPtr("08:00")})
		assert.ErrorIs(t, err, appErrors.ErrUnknownDay, "day %d", day)
	}
	_, err := ValidateAndAssign(grid, AssignmentRequest{Day: intPtr(9)})
	assert.ErrorIs(t, err, appErrors.ErrUnknownDay)
	_, err = ValidateAndAssign(grid, AssignmentRequest{Time: strPtr("08:00")})
	assert.ErrorIs(t, err, appErrors.ErrUnknownDay)
}

func TestValidateAndAssignClears(t *testing.T) {
	grid := dayWindowGrid(1, "08:00", "09:00")

	got, err := ValidateAndAssign(grid, AssignmentRequest{})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ValidateAndAssign(grid, AssignmentRequest{Day: intPtr(1), Time: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFulfilledRequiresConfirmedSlot(t *testing.T) {
	slot := &models.Slot{Day: 2, Time: "09:00"}

	err := CheckFulfilledTransition(nil, slot, true)
	assert.ErrorIs(t, err, appErrors.ErrNotConfirmed)

	unassigned := &models.Fulfillment{Distribution: "2024-05-06", FamilyName: "Smith"}
	assert.ErrorIs(t, CheckFulfilledTransition(unassigned, slot, true), appErrors.ErrNotConfirmed)

	confirmed := fulfillmentAt("2024-05-06", "Smith", 2, "09:00")
	assert.NoError(t, CheckFulfilledTransition(&confirmed, slot, true))
	assert.ErrorIs(t, CheckFulfilledTransition(&confirmed, nil, true), appErrors.ErrNotConfirmed)

	fulfilled := confirmed
	fulfilled.Fulfilled = true
	assert.NoError(t, CheckFulfilledTransition(&fulfilled, slot, true))

	assert.NoError(t, CheckFulfilledTransition(nil, nil, false))
}

func TestCancelAssignmentKeepsNotes(t *testing.T) {
	prior := fulfillmentAt("2024-05-06", "Smith", 2, "09:00")
	prior.Notes = "needs help to car"
	prior.Fulfilled = true

	cancelled := CancelAssignment(&prior, "2024-05-06", "Smith")
	assert.Equal(t, "needs help to car", cancelled.Notes)
	assert.Nil(t, cancelled.Slot())
	assert.False(t, cancelled.Fulfilled)
	assert.Equal(t, StateCancelled, StateOf(&cancelled))

	again := CancelAssignment(&cancelled, "2024-05-06", "Smith")
	assert.Equal(t, cancelled, again)

	fresh := CancelAssignment(nil, "2024-05-06", "Lee")
	assert.Equal(t, StateCancelled, StateOf(&fresh))
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, StateUnset, StateOf(nil))
	confirmed := fulfillmentAt("2024-05-06", "Smith", 2, "09:00")
	assert.Equal(t, StateConfirmed, StateOf(&confirmed))
	confirmed.Fulfilled = true
	assert.Equal(t, StateFulfilled, StateOf(&confirmed))
	assert.Equal(t, "fulfilled", StateOf(&confirmed).String())
}
