package dto

import (
	"time"

	"github.com/noah-isme/pantry-sync-api/internal/models"
)

// AppointmentsQuery selects what getAppointments returns. Distribution is
// a start date, or "true"/"latest" for the most recent distribution.
type AppointmentsQuery struct {
	Distribution string `form:"distribution"`
	Family       string `form:"family"`
}

// DistributionView is a distribution with its expanded slot grid.
type DistributionView struct {
	Distribution string                                       `json:"distribution"`
	Days         [models.DaysPerDistribution]models.DayBounds `json:"days"`
	Slots        [models.DaysPerDistribution][]string         `json:"slots"`
}

// AppointmentsResponse is the scheduling screen payload.
type AppointmentsResponse struct {
	AppointmentDefaults   []models.SlotCount  `json:"appointmentDefaults"`
	Distributions         []DistributionView  `json:"distributions"`
	Distribution          *string             `json:"distribution,omitempty"`
	AppointmentsScheduled []models.SlotCount  `json:"appointmentsScheduled,omitempty"`
	Fulfillment           *models.Fulfillment `json:"fulfillment"`
	FamilyDefault         *models.Slot        `json:"familyDefault"`
}

// SaveFulfillmentRequest replaces a family's record for one distribution.
type SaveFulfillmentRequest struct {
	Distribution    string     `json:"distribution" validate:"required,datetime=2006-01-02"`
	FamilyName      string     `json:"family_name" validate:"required,max=200"`
	ApptDay         *int       `json:"appt_day"`
	ApptTime        *string    `json:"appt_time"`
	Notes           string     `json:"notes" validate:"max=2000"`
	Fulfilled       bool       `json:"fulfilled"`
	FulfillmentTime *time.Time `json:"fulfillment_time"`
}

// UpdateFulfilledRequest toggles the fulfilled flag only.
type UpdateFulfilledRequest struct {
	Fulfilled *bool `json:"fulfilled" validate:"required"`
}

// ArrivalRequest signals that a family reached the greeter.
type ArrivalRequest struct {
	Distribution string `json:"distribution" validate:"required,datetime=2006-01-02"`
	FamilyName   string `json:"family_name" validate:"required,max=200"`
	ArrivalTime  string `json:"arrivalTime" validate:"required,max=40"`
}

// DeliveryDayResponse is the greeter screen payload for today.
type DeliveryDayResponse struct {
	Distribution *DistributionView    `json:"distribution"`
	Day          int                  `json:"day"`
	Date         string               `json:"date"`
	Appointments []models.Fulfillment `json:"appointments"`
	Shoppers     []models.Shopper     `json:"shoppers"`
}
