package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/contactbook/contactbook/internal/auth"
	"github.com/contactbook/contactbook/internal/handler/dto"
	"github.com/contactbook/contactbook/internal/service"
)

// ContactHandler handles HTTP requests for contact operations.
// All operations are scoped to the authenticated user.
type ContactHandler struct {
	svc    *service.ContactService
	logger *slog.Logger
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(svc *service.ContactService, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/contacts.
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req dto.CreateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	contact, err := h.svc.Create(r.Context(), userID, service.CreateContactInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		Birthday:       req.Birthday.Time,
		AdditionalData: req.AdditionalData,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("contact_created",
		"contact_id", contact.ID,
		"user_id", userID,
	)

	writeJSON(w, http.StatusCreated, dto.ToContactResponse(contact))
}

// Get handles GET /api/contacts/{id}.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Contact ID is required")
		return
	}

	contact, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToContactResponse(contact))
}

// List handles GET /api/contacts.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	skip, limit := parsePage(r)

	contacts, err := h.svc.List(r.Context(), userID, skip, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToContactListResponse(contacts))
}

// Search handles GET /api/contacts/search?query=term.
func (h *ContactHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	skip, limit := parsePage(r)

	query := r.URL.Query().Get("query")

	contacts, err := h.svc.Search(r.Context(), userID, query, skip, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToContactListResponse(contacts))
}

// Birthdays handles GET /api/contacts/birthdays.
// Returns contacts with a birthday in the next seven days.
func (h *ContactHandler) Birthdays(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	contacts, err := h.svc.UpcomingBirthdays(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToContactListResponse(contacts))
}

// Update handles PUT /api/contacts/{id}.
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Contact ID is required")
		return
	}

	var req dto.UpdateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	input := service.UpdateContactInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		AdditionalData: req.AdditionalData,
	}
	if req.Birthday != nil {
		birthday := req.Birthday.Time
		input.Birthday = &birthday
	}

	contact, err := h.svc.Update(r.Context(), userID, id, input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("contact_updated",
		"contact_id", contact.ID,
		"user_id", userID,
	)

	writeJSON(w, http.StatusOK, dto.ToContactResponse(contact))
}

// Delete handles DELETE /api/contacts/{id}.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Contact ID is required")
		return
	}

	contact, err := h.svc.Delete(r.Context(), userID, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("contact_deleted",
		"contact_id", contact.ID,
		"user_id", userID,
	)

	writeJSON(w, http.StatusOK, dto.ToContactResponse(contact))
}

// parsePage extracts skip/limit pagination query parameters.
// Out-of-range values are clamped by the service.
func parsePage(r *http.Request) (skip, limit int) {
	query := r.URL.Query()

	if s := query.Get("skip"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			skip = parsed
		}
	}
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	return skip, limit
}

// handleServiceError maps service errors to HTTP responses.
func (h *ContactHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrContactNotFound):
		writeError(w, http.StatusNotFound, "CONTACT_NOT_FOUND", "Contact not found")
	case errors.Is(err, service.ErrContactEmailExists):
		writeError(w, http.StatusConflict, "CONTACT_EMAIL_EXISTS", "Contact with this email already exists")
	case errors.Is(err, service.ErrContactPhoneExists):
		writeError(w, http.StatusConflict, "CONTACT_PHONE_EXISTS", "Contact with this phone number already exists")
	case errors.Is(err, service.ErrFirstNameRequired):
		writeError(w, http.StatusBadRequest, "FIRST_NAME_REQUIRED", "First name is required")
	case errors.Is(err, service.ErrPhoneRequired):
		writeError(w, http.StatusBadRequest, "PHONE_REQUIRED", "Phone number is required")
	case errors.Is(err, service.ErrBirthdayRequired):
		writeError(w, http.StatusBadRequest, "BIRTHDAY_REQUIRED", "Birthday is required")
	case errors.Is(err, service.ErrInvalidContactEmail):
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid contact email")
	case errors.Is(err, service.ErrFieldTooLong):
		writeError(w, http.StatusBadRequest, "FIELD_TOO_LONG", "Field exceeds maximum length")
	case errors.Is(err, service.ErrSearchTooShort):
		writeError(w, http.StatusBadRequest, "SEARCH_TOO_SHORT", "Search query must be at least 3 characters")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
