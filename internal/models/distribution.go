package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage form of a distribution id.
const DateLayout = "2006-01-02"

// DaysPerDistribution is the fixed length of every distribution period.
const DaysPerDistribution = 7

// DayBounds is the appointment window of one distribution day. A nil bound
// means the day takes no appointments.
type DayBounds struct {
	First *string `json:"first"`
	Last  *string `json:"last"`
}

// DistributionPeriod is one recurring multi-day event instance identified
// by its start date.
type DistributionPeriod struct {
	Distribution string                         `json:"distribution"`
	Days         [DaysPerDistribution]DayBounds `json:"days"`
}

// StartDate parses the distribution id.
func (d DistributionPeriod) StartDate() (time.Time, error) {
	return time.Parse(DateLayout, d.Distribution)
}

// DateOf maps a 1-relative day number to its calendar date.
func (d DistributionPeriod) DateOf(day int) (time.Time, error) {
	if day < 1 || day > DaysPerDistribution {
		return time.Time{}, fmt.Errorf("day %d out of range", day)
	}
	start, err := d.StartDate()
	if err != nil {
		return time.Time{}, err
	}
	return start.AddDate(0, 0, day-1), nil
}

// DayOn returns the day number covering date, or 0 when date lies outside
// the period.
func (d DistributionPeriod) DayOn(date time.Time) int {
	start, err := d.StartDate()
	if err != nil {
		return 0
	}
	y, m, dd := date.Date()
	day := int(time.Date(y, m, dd, 0, 0, 0, 0, time.UTC).Sub(start).Hours()/24) + 1
	if day < 1 || day > DaysPerDistribution {
		return 0
	}
	return day
}
