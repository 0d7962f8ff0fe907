package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistributionDateMapping(t *testing.T) {
	d := DistributionPeriod{Distribution: "2024-05-06"}

	date, err := d.DateOf(3)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-08", date.Format(DateLayout))

	_, err = d.DateOf(8)
	assert.Error(t, err)

	assert.Equal(t, 1, d.DayOn(time.Date(2024, 5, 6, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 7, d.DayOn(time.Date(2024, 5, 12, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, d.DayOn(time.Date(2024, 5, 13, 9, 0, 0, 0, time.UTC)))
}

func TestFulfillmentSlotAccessors(t *testing.T) {
	var f Fulfillment
	assert.Nil(t, f.Slot())

	f.SetSlot(&Slot{Day: 2, Time: "09:00"})
	require.NotNil(t, f.Slot())
	assert.Equal(t, Slot{Day: 2, Time: "09:00"}, *f.Slot())

	f.SetSlot(nil)
	assert.Nil(t, f.ApptDay)
	assert.Nil(t, f.ApptTime)
}

func TestSetFulfilledStampsTime(t *testing.T) {
	var f Fulfillment
	now := time.Date(2024, 5, 7, 9, 3, 0, 0, time.UTC)

	f.SetFulfilled(true, now)
	require.NotNil(t, f.FulfillmentTime)
	assert.True(t, f.FulfillmentTime.Equal(now))

	f.SetFulfilled(false, now)
	assert.Nil(t, f.FulfillmentTime)
}
