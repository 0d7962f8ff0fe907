package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/pantry-sync-api/internal/models"
)

func fulfillmentAt(dist, family string, day int, slot string) models.Fulfillment {
	f := models.Fulfillment{Distribution: dist, FamilyName: family}
	if slot != "" {
		f.SetSlot(&models.Slot{Day: day, Time: slot})
	}
	return f
}

func TestOccupancyRebuild(t *testing.T) {
	ix := NewOccupancyIndex(nil)
	defaults := []models.AppointmentDefault{
		{FamilyName: "Smith", ApptDay: intPtr(2), ApptTime: strPtr("09:00")},
		{FamilyName: "Jones", ApptDay: intPtr(2), ApptTime: strPtr("09:00")},
		{FamilyName: "Nguyen"},
	}
	fulfillments := []models.Fulfillment{
		fulfillmentAt("2024-05-06", "Smith", 2, "09:00"),
		fulfillmentAt("2024-05-06", "Garcia", 3, "10:15"),
		fulfillmentAt("2024-05-06", "Lee", 0, ""),
		fulfillmentAt("2024-04-29", "Jones", 2, "09:00"),
	}

	ix.Rebuild("2024-05-06", defaults, fulfillments)

	assert.Equal(t, "2024-05-06", ix.Distribution())
	assert.Equal(t, SlotCounts{Default: 2, Scheduled: 1}, ix.CountsFor(2, "09:00"))
	assert.Equal(t, SlotCounts{Scheduled: 1}, ix.CountsFor(3, "10:15"))
	assert.Equal(t, SlotCounts{}, ix.CountsFor(1, "08:00"))
	assert.Equal(t, []models.SlotCount{{Day: 2, Time: "09:00", Count: 2}}, ix.Snapshot(KindDefault))
	assert.Equal(t, []models.SlotCount{
		{Day: 2, Time: "09:00", Count: 1},
		{Day: 3, Time: "10:15", Count: 1},
	}, ix.Snapshot(KindScheduled))
}

func TestOccupancyDeltasMatchRebuild(t *testing.T) {
	const dist = "2024-05-06"
	rows := map[string]*models.Slot{}
	ix := NewOccupancyIndex(nil)
	ix.Rebuild(dist, nil, nil)

	moves := []struct {
		family string
		slot   *models.Slot
	}{
		{"Smith", &models.Slot{Day: 2, Time: "09:00"}},
		{"Jones", &models.Slot{Day: 2, Time: "09:00"}},
		{"Smith", &models.Slot{Day: 3, Time: "09:00"}},
		{"Garcia", &models.Slot{Day: 1, Time: "08:15"}},
		{"Jones", nil},
		{"Garcia", &models.Slot{Day: 1, Time: "08:15"}},
		{"Lee", nil},
		{"Jones", &models.Slot{Day: 1, Time: "08:15"}},
	}
	for _, m := range moves {
		ix.ApplyDelta(rows[m.family], m.slot, KindScheduled)
		rows[m.family] = m.slot
	}

	var final []models.Fulfillment
	for family, slot := range rows {
		f := models.Fulfillment{Distribution: dist, FamilyName: family}
		f.SetSlot(slot)
		final = append(final, f)
	}
	rebuilt := NewOccupancyIndex(nil)
	rebuilt.Rebuild(dist, nil, final)

	assert.Equal(t, rebuilt.Snapshot(KindScheduled), ix.Snapshot(KindScheduled))
	assert.Equal(t, SlotCounts{Scheduled: 2}, ix.CountsFor(1, "08:15"))
	assert.Equal(t, SlotCounts{}, ix.CountsFor(2, "09:00"))
}

func TestOccupancyUnderflowFloorsAtZeroAndLogs(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ix := NewOccupancyIndex(zap.New(core))
	ix.Rebuild("2024-05-06", nil, []models.Fulfillment{fulfillmentAt("2024-05-06", "Smith", 1, "08:00")})

	ix.ApplyDelta(&models.Slot{Day: 1, Time: "08:30"}, &models.Slot{Day: 1, Time: "08:45"}, KindScheduled)

	assert.Equal(t, SlotCounts{}, ix.CountsFor(1, "08:30"))
	assert.Equal(t, SlotCounts{Scheduled: 1}, ix.CountsFor(1, "08:45"))
	assert.Equal(t, SlotCounts{Scheduled: 1}, ix.CountsFor(1, "08:00"))
	assert.Equal(t, 1, logs.FilterMessage("occupancy underflow, delta ignored").Len())
}

func TestOccupancyDefaultKind(t *testing.T) {
	ix := NewOccupancyIndex(nil)
	ix.ApplyDelta(nil, &models.Slot{Day: 4, Time: "11:00"}, KindDefault)
	ix.ApplyDelta(&models.Slot{Day: 4, Time: "11:00"}, &models.Slot{Day: 4, Time: "11:00"}, KindDefault)

	assert.Equal(t, SlotCounts{Default: 1}, ix.CountsFor(4, "11:00"))
}
