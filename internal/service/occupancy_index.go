package service

import (
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/pantry-sync-api/internal/models"
)

// SlotKind selects which counter of an occupancy entry a delta touches.
type SlotKind int

const (
	KindDefault SlotKind = iota
	KindScheduled
)

func (k SlotKind) String() string {
	if k == KindDefault {
		return "default"
	}
	return "scheduled"
}

// SlotCounts is the occupancy of a single (day, slot).
type SlotCounts struct {
	Default   int `json:"defaultCount"`
	Scheduled int `json:"scheduledCount"`
}

// OccupancyIndex counts default and scheduled appointments per slot for the
// active distribution. It is not safe for concurrent use; the fulfillment
// coordinator is its only owner.
type OccupancyIndex struct {
	distribution string
	counts       map[models.Slot]*SlotCounts
	logger       *zap.Logger
}

// NewOccupancyIndex returns an empty index with no active distribution.
func NewOccupancyIndex(logger *zap.Logger) *OccupancyIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OccupancyIndex{
		counts: make(map[models.Slot]*SlotCounts),
		logger: logger,
	}
}

// Distribution is the id the index was last rebuilt for.
func (ix *OccupancyIndex) Distribution() string {
	return ix.distribution
}

// Rebuild recomputes every counter from scratch. Fulfillments belonging to
// other distributions are ignored.
func (ix *OccupancyIndex) Rebuild(distribution string, defaults []models.AppointmentDefault, fulfillments []models.Fulfillment) {
	ix.distribution = distribution
	ix.counts = make(map[models.Slot]*SlotCounts, len(defaults))

	for _, d := range defaults {
		if s := d.Slot(); s != nil {
			ix.entry(*s).Default++
		}
	}
	for _, f := range fulfillments {
		if f.Distribution != distribution {
			continue
		}
		if s := f.Slot(); s != nil {
			ix.entry(*s).Scheduled++
		}
	}
}

// ApplyDelta moves one appointment of the given kind from oldSlot to newSlot.
// Either side may be nil for a create or a clear.
func (ix *OccupancyIndex) ApplyDelta(oldSlot, newSlot *models.Slot, kind SlotKind) {
	if oldSlot != nil && newSlot != nil && *oldSlot == *newSlot {
		return
	}
	if oldSlot != nil {
		ix.decrement(*oldSlot, kind)
	}
	if newSlot != nil {
		e := ix.entry(*newSlot)
		if kind == KindDefault {
			e.Default++
		} else {
			e.Scheduled++
		}
	}
}

// CountsFor returns the counters at (day, slot).
func (ix *OccupancyIndex) CountsFor(day int, slot string) SlotCounts {
	if e, ok := ix.counts[models.Slot{Day: day, Time: slot}]; ok {
		return *e
	}
	return SlotCounts{}
}

// Snapshot lists the non-zero counters of one kind ordered by day then time.
func (ix *OccupancyIndex) Snapshot(kind SlotKind) []models.SlotCount {
	out := make([]models.SlotCount, 0, len(ix.counts))
	for slot, e := range ix.counts {
		n := e.Scheduled
		if kind == KindDefault {
			n = e.Default
		}
		if n > 0 {
			out = append(out, models.SlotCount{Day: slot.Day, Time: slot.Time, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Time < out[j].Time
	})
	return out
}

func (ix *OccupancyIndex) entry(slot models.Slot) *SlotCounts {
	e, ok := ix.counts[slot]
	if !ok {
		e = &SlotCounts{}
		ix.counts[slot] = e
	}
	return e
}

func (ix *OccupancyIndex) decrement(slot models.Slot, kind SlotKind) {
	e, ok := ix.counts[slot]
	if !ok {
		e = &SlotCounts{}
	}
	counter := &e.Scheduled
	if kind == KindDefault {
		counter = &e.Default
	}
	if *counter == 0 {
		ix.logger.Warn("occupancy underflow, delta ignored",
			zap.String("distribution", ix.distribution),
			zap.Int("day", slot.Day),
			zap.String("slot", slot.Time),
			zap.Stringer("kind", kind),
		)
		return
	}
	*counter--
	if e.Default == 0 && e.Scheduled == 0 {
		delete(ix.counts, slot)
	}
}
