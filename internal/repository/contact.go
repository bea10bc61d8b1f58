package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/contactbook/contactbook/internal/model"
)

// Common errors for contact repository operations.
var (
	ErrContactNotFound    = errors.New("contact not found")
	ErrContactEmailExists = errors.New("contact with this email already exists")
	ErrContactPhoneExists = errors.New("contact with this phone number already exists")
)

const contactColumns = `id, first_name, COALESCE(last_name, ''), email, phone_number,
		birthday, COALESCE(additional_data, ''), user_id, created_at, updated_at`

// CreateContact inserts a new contact owned by the given user.
func (r *Repository) CreateContact(ctx context.Context, contact *model.Contact) error {
	query := `
		INSERT INTO contacts (id, first_name, last_name, email, phone_number,
			birthday, additional_data, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		contact.ID,
		contact.FirstName,
		nullString(contact.LastName),
		contact.Email,
		contact.PhoneNumber,
		contact.Birthday,
		nullString(contact.AdditionalData),
		contact.UserID,
		contact.CreatedAt,
		contact.UpdatedAt,
	)

	if err != nil {
		if err := mapContactConstraint(err); err != nil {
			return err
		}
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

// GetContactByID retrieves a contact by ID, scoped to the owning user.
// A contact owned by a different user is reported as not found.
func (r *Repository) GetContactByID(ctx context.Context, contactID, userID string) (*model.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE id = $1 AND user_id = $2
	`

	contact, err := scanContact(r.pool.QueryRow(ctx, query, contactID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return contact, nil
}

// ListContacts returns a page of the user's contacts ordered by creation time.
func (r *Repository) ListContacts(ctx context.Context, userID string, skip, limit int) ([]*model.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1
		ORDER BY created_at, id
		OFFSET $2 LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, userID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	return collectContacts(rows)
}

// SearchContacts returns the user's contacts whose first name, last name or
// email matches the query, case-insensitively.
func (r *Repository) SearchContacts(ctx context.Context, userID, search string, skip, limit int) ([]*model.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1
		  AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)
		ORDER BY created_at, id
		OFFSET $3 LIMIT $4
	`

	pattern := "%" + escapeLike(search) + "%"

	rows, err := r.pool.Query(ctx, query, userID, pattern, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	defer rows.Close()

	return collectContacts(rows)
}

// UpcomingBirthdays returns the user's contacts whose birthday (month and
// day) falls within the next `days` days from `from`, bounds inclusive.
// Windows that cross the year boundary are handled.
func (r *Repository) UpcomingBirthdays(ctx context.Context, userID string, from time.Time, days int) ([]*model.Contact, error) {
	start := from.Format("01-02")
	end := from.AddDate(0, 0, days).Format("01-02")

	var condition string
	if start <= end {
		condition = `to_char(birthday, 'MM-DD') BETWEEN $2 AND $3`
	} else {
		condition = `(to_char(birthday, 'MM-DD') >= $2 OR to_char(birthday, 'MM-DD') <= $3)`
	}

	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1 AND ` + condition + `
		ORDER BY to_char(birthday, 'MM-DD'), id
	`

	rows, err := r.pool.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming birthdays: %w", err)
	}
	defer rows.Close()

	return collectContacts(rows)
}

// ContactUpdate describes a partial update to a contact.
// Nil fields are left unchanged.
type ContactUpdate struct {
	FirstName      *string
	LastName       *string
	Email          *string
	PhoneNumber    *string
	Birthday       *time.Time
	AdditionalData *string
}

// UpdateContact applies a partial update to the contact with the given ID,
// scoped to the owning user, and returns the updated contact.
func (r *Repository) UpdateContact(ctx context.Context, contactID, userID string, update ContactUpdate) (*model.Contact, error) {
	query := `
		UPDATE contacts
		SET first_name = COALESCE($3, first_name),
		    last_name = COALESCE($4, last_name),
		    email = COALESCE($5, email),
		    phone_number = COALESCE($6, phone_number),
		    birthday = COALESCE($7, birthday),
		    additional_data = COALESCE($8, additional_data),
		    updated_at = $9
		WHERE id = $1 AND user_id = $2
	`

	tag, err := r.pool.Exec(ctx, query,
		contactID,
		userID,
		update.FirstName,
		update.LastName,
		update.Email,
		update.PhoneNumber,
		update.Birthday,
		update.AdditionalData,
		time.Now(),
	)

	if err != nil {
		if err := mapContactConstraint(err); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrContactNotFound
	}

	return r.GetContactByID(ctx, contactID, userID)
}

// DeleteContact removes the contact with the given ID, scoped to the owning
// user, and returns the deleted contact.
func (r *Repository) DeleteContact(ctx context.Context, contactID, userID string) (*model.Contact, error) {
	contact, err := r.GetContactByID(ctx, contactID, userID)
	if err != nil {
		return nil, err
	}

	_, err = r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1 AND user_id = $2`, contactID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete contact: %w", err)
	}

	return contact, nil
}

// mapContactConstraint translates unique-constraint violations into
// domain errors. Returns nil when the error is not a known constraint.
func mapContactConstraint(err error) error {
	switch violatedConstraint(err) {
	case "uq_contact_email_user":
		return ErrContactEmailExists
	case "uq_contact_phone_user":
		return ErrContactPhoneExists
	}
	return nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*model.Contact, error) {
	var c model.Contact
	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.PhoneNumber,
		&c.Birthday,
		&c.AdditionalData,
		&c.UserID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectContacts(rows pgx.Rows) ([]*model.Contact, error) {
	contacts := make([]*model.Contact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read contacts: %w", err)
	}
	return contacts, nil
}

// escapeLike escapes LIKE wildcards in user-supplied search input.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
