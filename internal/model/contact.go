// Package model defines domain entities for the application.
package model

import "time"

// Field length limits for contacts, enforced at the service layer
// and mirrored by varchar widths in the schema.
const (
	MaxNameLength           = 20
	MaxEmailLength          = 50
	MaxPhoneLength          = 15
	MaxAdditionalDataLength = 50
)

// Contact represents a single entry in a user's address book.
type Contact struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name,omitempty"`
	Email          string    `json:"email"`
	PhoneNumber    string    `json:"phone_number"`
	Birthday       time.Time `json:"birthday"`
	AdditionalData string    `json:"additional_data,omitempty"`
	UserID         string    `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BirthdayInWindow reports whether the contact's birthday (month and day,
// the year is ignored) falls within [from, from+days], bounds inclusive.
// Handles windows that wrap across the year boundary.
func (c *Contact) BirthdayInWindow(from time.Time, days int) bool {
	start := int(from.Month())*100 + from.Day()
	endDate := from.AddDate(0, 0, days)
	end := int(endDate.Month())*100 + endDate.Day()
	bday := int(c.Birthday.Month())*100 + c.Birthday.Day()

	if start <= end {
		return bday >= start && bday <= end
	}
	// Window wraps the year boundary (e.g. Dec 28 - Jan 4).
	return bday >= start || bday <= end
}
