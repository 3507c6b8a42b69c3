package customer

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/voyago/voyago/core"
)

// AI segments assigned by the segmentation analysis.
const (
	SegmentNew     = "new"
	SegmentRegular = "regular"
	SegmentVIP     = "vip"
	SegmentAtRisk  = "at_risk"
	SegmentDormant = "dormant"
)

type Customer struct {
	ID         string `json:"id"`
	OperatorID string `json:"operator_id"`

	Initials    string `json:"initials"`
	FullName    string `json:"full_name"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Location    string `json:"location,omitempty"`

	AISegment string `json:"ai_customer_segment,omitempty"`

	TotalSpent          float64    `json:"total_spent"`
	BookingsCount       int        `json:"bookings_count"`
	CancellationRatePct float64    `json:"cancellation_rate"`
	LastInteractionDate *time.Time `json:"last_interaction_date,omitempty"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// DisplayName disambiguates customers sharing a full name.
func (c Customer) DisplayName() string {
	switch {
	case c.Initials != "" && c.Email != "":
		return c.FullName + " (" + c.Initials + ") - " + c.Email
	case c.Initials != "":
		return c.FullName + " (" + c.Initials + ")"
	case c.Email != "":
		return c.FullName + " - " + c.Email
	}
	return c.FullName + " (ID: " + c.ID + ")"
}

// Note is a free-form annotation attached to a customer by a staff user.
type Note struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	AuthorID   string `json:"author_id"`

	Text        string `json:"note_text"`
	AISentiment string `json:"ai_sentiment,omitempty"`

	CreatedAt time.Time `json:"created_at"` // UTC
}

type NewCustomer struct {
	Initials    string `json:"initials" validate:"omitempty,max=10"`
	FullName    string `json:"full_name" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	PhoneNumber string `json:"phone_number"`
	Location    string `json:"location"`
}

func (nc *NewCustomer) Validate(validate *validator.Validate) error {
	nc.Initials = core.CleanString(nc.Initials)
	nc.FullName = core.CleanString(nc.FullName)
	nc.Email = core.CleanString(nc.Email, true /* lower */)
	nc.PhoneNumber = core.CleanString(nc.PhoneNumber)
	nc.Location = core.CleanString(nc.Location)
	return validate.Struct(nc)
}

type UpdateCustomer struct {
	Initials    string  `json:"initials" validate:"omitempty,max=10"`
	FullName    string  `json:"full_name"`
	Email       string  `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number"`
	Location    *string `json:"location"`
}

func (uc *UpdateCustomer) Validate(validate *validator.Validate) error {
	uc.Initials = core.CleanString(uc.Initials)
	uc.FullName = core.CleanString(uc.FullName)
	uc.Email = core.CleanString(uc.Email, true /* lower */)
	return validate.Struct(uc)
}

type NewNote struct {
	Text string `json:"note_text" validate:"required"`
}

func (nn *NewNote) Validate(validate *validator.Validate) error {
	nn.Text = core.CleanString(nn.Text)
	return validate.Struct(nn)
}

// QueryFilter applies AND operation on its available fields.
type QueryFilter struct {
	Search  string `query:"search"` // matches full name, initials, email
	Segment string `query:"segment"`
}
