package service

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validCreateInput() CreateContactInput {
	return CreateContactInput{
		FirstName:   "Alice",
		LastName:    "Smith",
		Email:       "alice.smith@example.com",
		PhoneNumber: "+12025550123",
		Birthday:    time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidateContactInput_Valid(t *testing.T) {
	input := validCreateInput()
	if err := validateContactInput(&input); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
}

func TestValidateContactInput_NormalizesEmail(t *testing.T) {
	input := validCreateInput()
	input.Email = "  Alice.Smith@Example.COM "

	if err := validateContactInput(&input); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
	if input.Email != "alice.smith@example.com" {
		t.Errorf("expected lowercased email, got %s", input.Email)
	}
}

func TestValidateContactInput_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateContactInput)
		wantErr error
	}{
		{
			name:    "missing first name",
			mutate:  func(in *CreateContactInput) { in.FirstName = "" },
			wantErr: ErrFirstNameRequired,
		},
		{
			name:    "whitespace first name",
			mutate:  func(in *CreateContactInput) { in.FirstName = "   " },
			wantErr: ErrFirstNameRequired,
		},
		{
			name:    "first name too long",
			mutate:  func(in *CreateContactInput) { in.FirstName = strings.Repeat("a", 21) },
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "last name too long",
			mutate:  func(in *CreateContactInput) { in.LastName = strings.Repeat("a", 21) },
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "missing email",
			mutate:  func(in *CreateContactInput) { in.Email = "" },
			wantErr: ErrInvalidContactEmail,
		},
		{
			name:    "malformed email",
			mutate:  func(in *CreateContactInput) { in.Email = "not-an-email" },
			wantErr: ErrInvalidContactEmail,
		},
		{
			name: "email too long",
			mutate: func(in *CreateContactInput) {
				in.Email = strings.Repeat("a", 45) + "@example.com"
			},
			wantErr: ErrInvalidContactEmail,
		},
		{
			name:    "missing phone",
			mutate:  func(in *CreateContactInput) { in.PhoneNumber = "" },
			wantErr: ErrPhoneRequired,
		},
		{
			name:    "phone too long",
			mutate:  func(in *CreateContactInput) { in.PhoneNumber = "+123456789012345" },
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "missing birthday",
			mutate:  func(in *CreateContactInput) { in.Birthday = time.Time{} },
			wantErr: ErrBirthdayRequired,
		},
		{
			name:    "additional data too long",
			mutate:  func(in *CreateContactInput) { in.AdditionalData = strings.Repeat("a", 51) },
			wantErr: ErrFieldTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCreateInput()
			tt.mutate(&input)

			err := validateContactInput(&input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateContactUpdate(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	tests := []struct {
		name    string
		input   UpdateContactInput
		wantErr error
	}{
		{
			name:    "empty update is valid",
			input:   UpdateContactInput{},
			wantErr: nil,
		},
		{
			name:    "valid partial update",
			input:   UpdateContactInput{FirstName: strPtr("Bob")},
			wantErr: nil,
		},
		{
			name:    "first name cleared",
			input:   UpdateContactInput{FirstName: strPtr("  ")},
			wantErr: ErrFirstNameRequired,
		},
		{
			name:    "first name too long",
			input:   UpdateContactInput{FirstName: strPtr(strings.Repeat("a", 21))},
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "invalid email",
			input:   UpdateContactInput{Email: strPtr("nope")},
			wantErr: ErrInvalidContactEmail,
		},
		{
			name:    "phone cleared",
			input:   UpdateContactInput{PhoneNumber: strPtr("")},
			wantErr: ErrPhoneRequired,
		},
		{
			name:    "additional data too long",
			input:   UpdateContactInput{AdditionalData: strPtr(strings.Repeat("a", 51))},
			wantErr: ErrFieldTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContactUpdate(&tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateContactUpdate_TrimsFields(t *testing.T) {
	first := " Bob "
	phone := " +12025550199 "
	input := UpdateContactInput{FirstName: &first, PhoneNumber: &phone}

	if err := validateContactUpdate(&input); err != nil {
		t.Fatalf("expected valid update, got %v", err)
	}
	if *input.FirstName != "Bob" {
		t.Errorf("expected trimmed first name, got %q", *input.FirstName)
	}
	if *input.PhoneNumber != "+12025550199" {
		t.Errorf("expected trimmed phone, got %q", *input.PhoneNumber)
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		name      string
		skip      int
		limit     int
		wantSkip  int
		wantLimit int
	}{
		{"defaults", 0, 0, 0, DefaultPageLimit},
		{"negative skip", -5, 10, 0, 10},
		{"negative limit", 0, -1, 0, DefaultPageLimit},
		{"limit capped", 0, 10000, 0, MaxPageLimit},
		{"passthrough", 20, 50, 20, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, limit := clampPage(tt.skip, tt.limit)
			if skip != tt.wantSkip || limit != tt.wantLimit {
				t.Errorf("clampPage(%d, %d) = (%d, %d), want (%d, %d)",
					tt.skip, tt.limit, skip, limit, tt.wantSkip, tt.wantLimit)
			}
		})
	}
}
