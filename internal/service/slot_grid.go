package service

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/noah-isme/pantry-sync-api/internal/models"
)

// SlotStep is the fixed width of every appointment slot.
const SlotStep = 15 * 60

const secondsPerDay = 24 * 60 * 60

// Grid is the ordered list of visible HH:MM slots for each of the seven
// distribution days.
type Grid [models.DaysPerDistribution][]string

// Day returns the slots of a 1-relative day; unknown days have none.
func (g Grid) Day(day int) []string {
	if day < 1 || day > models.DaysPerDistribution {
		return nil
	}
	return g[day-1]
}

// Contains reports whether slot is a visible slot on day.
func (g Grid) Contains(day int, slot string) bool {
	for _, s := range g.Day(day) {
		if s == slot {
			return true
		}
	}
	return false
}

// GenerateGrid expands day bounds into 15-minute slots aligned on 00:00.
// A day with a missing or unparsable bound, or first > last, is empty.
func GenerateGrid(days [models.DaysPerDistribution]models.DayBounds) Grid {
	var grid Grid
	for i, b := range days {
		grid[i] = daySlots(b)
	}
	return grid
}

func daySlots(b models.DayBounds) []string {
	if b.First == nil || b.Last == nil {
		return []string{}
	}
	first, err := ParseClock(*b.First)
	if err != nil {
		return []string{}
	}
	last, err := ParseClock(*b.Last)
	if err != nil || first > last {
		return []string{}
	}

	slots := make([]string, 0, (last-first)/SlotStep+1)
	for t := 0; t < secondsPerDay && t <= last; t += SlotStep {
		if t >= first {
			slots = append(slots, FormatClock(t))
		}
	}
	return slots
}

// ParseClock converts "HH:MM" or "HH:MM:SS" into seconds since midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	limits := []int{23, 59, 59}
	total := 0
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > limits[i] || len(p) != 2 {
			return 0, fmt.Errorf("invalid clock value %q", raw)
		}
		switch i {
		case 0:
			total += v * 3600
		case 1:
			total += v * 60
		default:
			total += v
		}
	}
	return total, nil
}

// FormatClock renders seconds since midnight as zero-padded HH:MM.
func FormatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/3600, (seconds%3600)/60)
}

// NormalizeSlot canonicalises a client supplied time to HH:MM. Values with
// a seconds part other than :00 cannot be grid slots and are returned as is.
func NormalizeSlot(raw string) string {
	secs, err := ParseClock(raw)
	if err != nil || secs%60 != 0 {
		return raw
	}
	return FormatClock(secs)
}

// gridCache memoises grids per distribution and drops an entry as soon as
// the bounds it was built from change.
type gridCache struct {
	mu      sync.Mutex
	entries map[string]gridEntry
}

type gridEntry struct {
	fingerprint string
	grid        Grid
}

func newGridCache() *gridCache {
	return &gridCache{entries: make(map[string]gridEntry)}
}

func (c *gridCache) Get(d models.DistributionPeriod) Grid {
	fp := fingerprint(d.Days)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[d.Distribution]; ok && e.fingerprint == fp {
		return e.grid
	}
	grid := GenerateGrid(d.Days)
	c.entries[d.Distribution] = gridEntry{fingerprint: fp, grid: grid}
	return grid
}

func (c *gridCache) Invalidate(distribution string) {
	c.mu.Lock()
	delete(c.entries, distribution)
	c.mu.Unlock()
}

func fingerprint(days [models.DaysPerDistribution]models.DayBounds) string {
	var b strings.Builder
	for _, d := range days {
		b.WriteString(deref(d.First))
		b.WriteByte('-')
		b.WriteString(deref(d.Last))
		b.WriteByte('|')
	}
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return "~"
	}
	return *s
}
