package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/contactbook/contactbook/internal/metrics"
	"github.com/contactbook/contactbook/internal/model"
	"github.com/contactbook/contactbook/internal/repository"
)

// Contact service errors.
var (
	ErrContactNotFound     = errors.New("contact not found")
	ErrContactEmailExists  = errors.New("contact with this email already exists")
	ErrContactPhoneExists  = errors.New("contact with this phone number already exists")
	ErrFirstNameRequired   = errors.New("first name is required")
	ErrFieldTooLong        = errors.New("field exceeds maximum length")
	ErrInvalidContactEmail = errors.New("invalid contact email")
	ErrPhoneRequired       = errors.New("phone number is required")
	ErrBirthdayRequired    = errors.New("birthday is required")
	ErrSearchTooShort      = errors.New("search query must be at least 3 characters")
)

// Pagination bounds for contact listings.
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 500

	// MinSearchLength is the minimum accepted search query length.
	MinSearchLength = 3

	// BirthdayWindowDays is the number of days ahead scanned for
	// upcoming birthdays.
	BirthdayWindowDays = 7
)

// ContactService handles contact CRUD, search and birthday lookups,
// always scoped to the owning user.
type ContactService struct {
	repo    *repository.Repository
	metrics metrics.Recorder
}

// NewContactService creates a ContactService.
func NewContactService(repo *repository.Repository, recorder metrics.Recorder) *ContactService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ContactService{repo: repo, metrics: recorder}
}

// CreateContactInput defines input for creating a contact.
type CreateContactInput struct {
	FirstName      string
	LastName       string
	Email          string
	PhoneNumber    string
	Birthday       time.Time
	AdditionalData string
}

// Create adds a contact to the user's address book.
func (s *ContactService) Create(ctx context.Context, userID string, input CreateContactInput) (*model.Contact, error) {
	if err := validateContactInput(&input); err != nil {
		return nil, err
	}

	now := time.Now()
	contact := &model.Contact{
		ID:             ulid.Make().String(),
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          input.Email,
		PhoneNumber:    input.PhoneNumber,
		Birthday:       input.Birthday,
		AdditionalData: input.AdditionalData,
		UserID:         userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateContact(ctx, contact); err != nil {
		return nil, mapContactError(err)
	}

	s.metrics.IncContactCreated()
	return contact, nil
}

// Get retrieves one of the user's contacts by ID.
func (s *ContactService) Get(ctx context.Context, userID, contactID string) (*model.Contact, error) {
	contact, err := s.repo.GetContactByID(ctx, contactID, userID)
	if err != nil {
		return nil, mapContactError(err)
	}
	return contact, nil
}

// List returns a page of the user's contacts.
func (s *ContactService) List(ctx context.Context, userID string, skip, limit int) ([]*model.Contact, error) {
	skip, limit = clampPage(skip, limit)
	return s.repo.ListContacts(ctx, userID, skip, limit)
}

// Search finds the user's contacts matching the query against first name,
// last name or email.
func (s *ContactService) Search(ctx context.Context, userID, query string, skip, limit int) ([]*model.Contact, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinSearchLength {
		return nil, ErrSearchTooShort
	}

	skip, limit = clampPage(skip, limit)
	return s.repo.SearchContacts(ctx, userID, query, skip, limit)
}

// UpcomingBirthdays returns contacts whose birthdays fall within the next
// seven days.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, userID string) ([]*model.Contact, error) {
	return s.repo.UpcomingBirthdays(ctx, userID, time.Now(), BirthdayWindowDays)
}

// UpdateContactInput defines a partial contact update. Nil fields are
// left unchanged.
type UpdateContactInput struct {
	FirstName      *string
	LastName       *string
	Email          *string
	PhoneNumber    *string
	Birthday       *time.Time
	AdditionalData *string
}

// Update applies a partial update to one of the user's contacts.
func (s *ContactService) Update(ctx context.Context, userID, contactID string, input UpdateContactInput) (*model.Contact, error) {
	if err := validateContactUpdate(&input); err != nil {
		return nil, err
	}

	contact, err := s.repo.UpdateContact(ctx, contactID, userID, repository.ContactUpdate{
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          input.Email,
		PhoneNumber:    input.PhoneNumber,
		Birthday:       input.Birthday,
		AdditionalData: input.AdditionalData,
	})
	if err != nil {
		return nil, mapContactError(err)
	}

	s.metrics.IncContactUpdated()
	return contact, nil
}

// Delete removes one of the user's contacts and returns it.
func (s *ContactService) Delete(ctx context.Context, userID, contactID string) (*model.Contact, error) {
	contact, err := s.repo.DeleteContact(ctx, contactID, userID)
	if err != nil {
		return nil, mapContactError(err)
	}

	s.metrics.IncContactDeleted()
	return contact, nil
}

func validateContactInput(input *CreateContactInput) error {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.PhoneNumber = strings.TrimSpace(input.PhoneNumber)

	if input.FirstName == "" {
		return ErrFirstNameRequired
	}
	if len(input.FirstName) > model.MaxNameLength || len(input.LastName) > model.MaxNameLength {
		return ErrFieldTooLong
	}

	email, err := validateContactEmail(input.Email)
	if err != nil {
		return err
	}
	input.Email = email

	if input.PhoneNumber == "" {
		return ErrPhoneRequired
	}
	if len(input.PhoneNumber) > model.MaxPhoneLength {
		return ErrFieldTooLong
	}
	if input.Birthday.IsZero() {
		return ErrBirthdayRequired
	}
	if len(input.AdditionalData) > model.MaxAdditionalDataLength {
		return ErrFieldTooLong
	}

	return nil
}

func validateContactUpdate(input *UpdateContactInput) error {
	if input.FirstName != nil {
		trimmed := strings.TrimSpace(*input.FirstName)
		if trimmed == "" {
			return ErrFirstNameRequired
		}
		if len(trimmed) > model.MaxNameLength {
			return ErrFieldTooLong
		}
		input.FirstName = &trimmed
	}
	if input.LastName != nil && len(*input.LastName) > model.MaxNameLength {
		return ErrFieldTooLong
	}
	if input.Email != nil {
		email, err := validateContactEmail(*input.Email)
		if err != nil {
			return err
		}
		input.Email = &email
	}
	if input.PhoneNumber != nil {
		trimmed := strings.TrimSpace(*input.PhoneNumber)
		if trimmed == "" {
			return ErrPhoneRequired
		}
		if len(trimmed) > model.MaxPhoneLength {
			return ErrFieldTooLong
		}
		input.PhoneNumber = &trimmed
	}
	if input.AdditionalData != nil && len(*input.AdditionalData) > model.MaxAdditionalDataLength {
		return ErrFieldTooLong
	}
	return nil
}

func validateContactEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(email) > model.MaxEmailLength {
		return "", ErrInvalidContactEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidContactEmail
	}
	return email, nil
}

func clampPage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return skip, limit
}

// mapContactError translates repository errors into service errors.
func mapContactError(err error) error {
	switch {
	case errors.Is(err, repository.ErrContactNotFound):
		return ErrContactNotFound
	case errors.Is(err, repository.ErrContactEmailExists):
		return ErrContactEmailExists
	case errors.Is(err, repository.ErrContactPhoneExists):
		return ErrContactPhoneExists
	}
	return err
}
