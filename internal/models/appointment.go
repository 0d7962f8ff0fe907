package models

import "time"

// Slot is a (day, time) pair inside a distribution grid.
type Slot struct {
	Day  int    `json:"day"`
	Time string `json:"time"`
}

// AppointmentDefault is a family's recurring preferred slot.
type AppointmentDefault struct {
	FamilyName string  `db:"family_name" json:"family_name"`
	ApptDay    *int    `db:"appt_day" json:"appt_day"`
	ApptTime   *string `db:"appt_time" json:"appt_time"`
}

// Slot returns the default slot, or nil when either half is unset.
func (a AppointmentDefault) Slot() *Slot {
	return slotOf(a.ApptDay, a.ApptTime)
}

// Fulfillment is the per-distribution appointment and status of a family.
type Fulfillment struct {
	Distribution    string     `db:"distribution" json:"distribution"`
	FamilyName      string     `db:"family_name" json:"family_name"`
	ApptDay         *int       `db:"appt_day" json:"appt_day"`
	ApptTime        *string    `db:"appt_time" json:"appt_time"`
	Notes           string     `db:"notes" json:"notes"`
	Fulfilled       bool       `db:"fulfilled" json:"fulfilled"`
	FulfillmentTime *time.Time `db:"fulfillment_time" json:"fulfillment_time"`
}

// Slot returns the scheduled slot, or nil when unassigned.
func (f Fulfillment) Slot() *Slot {
	return slotOf(f.ApptDay, f.ApptTime)
}

// SetSlot assigns or clears the scheduled slot.
func (f *Fulfillment) SetSlot(s *Slot) {
	if s == nil {
		f.ApptDay = nil
		f.ApptTime = nil
		return
	}
	day, t := s.Day, s.Time
	f.ApptDay = &day
	f.ApptTime = &t
}

// SetFulfilled flips the status and stamps or clears the fulfillment time.
func (f *Fulfillment) SetFulfilled(fulfilled bool, at time.Time) {
	f.Fulfilled = fulfilled
	if fulfilled {
		stamp := at.UTC()
		f.FulfillmentTime = &stamp
		return
	}
	f.FulfillmentTime = nil
}

func slotOf(day *int, t *string) *Slot {
	if day == nil || t == nil || *t == "" {
		return nil
	}
	return &Slot{Day: *day, Time: *t}
}

// SlotCount is the number of appointments held at one slot.
type SlotCount struct {
	Day   int    `json:"day"`
	Time  string `json:"time"`
	Count int    `json:"count"`
}
