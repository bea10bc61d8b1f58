package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/contactbook/contactbook/internal/model"
)

// dateLayout is the wire format for birthdays.
const dateLayout = "2006-01-02"

// Date is a calendar date that marshals as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// UnmarshalJSON parses a "YYYY-MM-DD" date.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

// MarshalJSON formats the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(dateLayout) + `"`), nil
}

// CreateContactRequest represents the request body for creating a contact.
type CreateContactRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name,omitempty"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phone_number"`
	Birthday       Date   `json:"birthday"`
	AdditionalData string `json:"additional_data,omitempty"`
}

// UpdateContactRequest represents a partial contact update.
type UpdateContactRequest struct {
	FirstName      *string `json:"first_name,omitempty"`
	LastName       *string `json:"last_name,omitempty"`
	Email          *string `json:"email,omitempty"`
	PhoneNumber    *string `json:"phone_number,omitempty"`
	Birthday       *Date   `json:"birthday,omitempty"`
	AdditionalData *string `json:"additional_data,omitempty"`
}

// ContactResponse represents a contact in API responses.
type ContactResponse struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name,omitempty"`
	Email          string    `json:"email"`
	PhoneNumber    string    `json:"phone_number"`
	Birthday       Date      `json:"birthday"`
	AdditionalData string    `json:"additional_data,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ContactListResponse represents a list of contacts.
type ContactListResponse struct {
	Data  []ContactResponse `json:"data"`
	Count int               `json:"count"`
}

// ToContactResponse converts a Contact model to ContactResponse DTO.
func ToContactResponse(contact *model.Contact) *ContactResponse {
	return &ContactResponse{
		ID:             contact.ID,
		FirstName:      contact.FirstName,
		LastName:       contact.LastName,
		Email:          contact.Email,
		PhoneNumber:    contact.PhoneNumber,
		Birthday:       Date{contact.Birthday},
		AdditionalData: contact.AdditionalData,
		CreatedAt:      contact.CreatedAt,
		UpdatedAt:      contact.UpdatedAt,
	}
}

// ToContactListResponse converts a slice of Contact models to
// ContactListResponse.
func ToContactListResponse(contacts []*model.Contact) *ContactListResponse {
	responses := make([]ContactResponse, len(contacts))
	for i, contact := range contacts {
		responses[i] = *ToContactResponse(contact)
	}
	return &ContactListResponse{
		Data:  responses,
		Count: len(responses),
	}
}
