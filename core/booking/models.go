package booking

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/voyago/voyago/core"
)

// Booking statuses
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

type Booking struct {
	ID         string `json:"id"`
	OperatorID string `json:"operator_id"`

	CustomerID  string `json:"customer_id"`
	TourID      string `json:"tour_id"`
	DepartureID string `json:"departure_id"`

	NumberOfPeople int     `json:"number_of_people"`
	TotalAmount    float64 `json:"total_amount"`
	Status         string  `json:"status"`
	Notes          string  `json:"notes,omitempty"`

	AICancellationRisk float64 `json:"ai_cancellation_risk,omitempty"` // 0-100

	BookingDate time.Time `json:"booking_date"` // UTC
	UpdatedAt   time.Time `json:"updated_at"`   // UTC
}

// Active reports whether the booking still holds spots on its departure.
func (b Booking) Active() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

type NewBooking struct {
	CustomerID     string  `json:"customer_id" validate:"required"`
	TourID         string  `json:"tour_id" validate:"required"`
	DepartureID    string  `json:"departure_id" validate:"required"`
	NumberOfPeople int     `json:"number_of_people" validate:"required,min=1,max=20"`
	TotalAmount    float64 `json:"total_amount" validate:"min=0"` // computed when zero
	Status         string  `json:"status" validate:"omitempty,oneof=pending confirmed cancelled completed"`
	Notes          string  `json:"notes"`
}

func (nb *NewBooking) Validate(validate *validator.Validate) error {
	nb.Notes = core.CleanString(nb.Notes)
	return validate.Struct(nb)
}

type UpdateBooking struct {
	NumberOfPeople *int     `json:"number_of_people" validate:"omitempty,min=1,max=20"`
	TotalAmount    *float64 `json:"total_amount" validate:"omitempty,min=0"`
	Status         string   `json:"status" validate:"omitempty,oneof=pending confirmed cancelled completed"`
	Notes          *string  `json:"notes"`
}

func (ub *UpdateBooking) Validate(validate *validator.Validate) error {
	return validate.Struct(ub)
}

// QueryFilter applies AND operation on its available fields.
type QueryFilter struct {
	CustomerID  string `query:"customer_id"`
	TourID      string `query:"tour_id"`
	DepartureID string `query:"departure_id"`
	Status      string `query:"status"`
}
