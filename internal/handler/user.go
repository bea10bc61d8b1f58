package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/contactbook/contactbook/internal/auth"
	"github.com/contactbook/contactbook/internal/handler/dto"
	"github.com/contactbook/contactbook/internal/service"
	"github.com/contactbook/contactbook/internal/storage"
)

// UserHandler handles HTTP requests for the user profile.
type UserHandler struct {
	svc           *service.UserService
	uploader      storage.Uploader
	logger        *slog.Logger
	maxAvatarSize int64
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, uploader storage.Uploader, logger *slog.Logger, maxAvatarSize int64) *UserHandler {
	return &UserHandler{
		svc:           svc,
		uploader:      uploader,
		logger:        logger,
		maxAvatarSize: maxAvatarSize,
	}
}

// Me handles GET /api/users/me.
// Returns the authenticated user's profile.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	user, err := h.svc.GetByEmail(r.Context(), authCtx.Email)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// UpdateAvatar handles PATCH /api/users/avatar.
// Accepts a multipart form with a "file" field, stores it in object
// storage and updates the user's avatar URL.
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	if h.uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Avatar storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxAvatarSize)
	if err := r.ParseMultipartForm(h.maxAvatarSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Avatar exceeds maximum size")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "Multipart field 'file' is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "INVALID_FILE_TYPE", "Avatar must be an image")
		return
	}

	key := storage.AvatarKey(authCtx.Username)
	avatarURL, err := h.uploader.Upload(r.Context(), key, contentType, file)
	if err != nil {
		h.logger.Error("avatar upload failed",
			"user_id", authCtx.UserID,
			"error", err,
		)
		writeError(w, http.StatusBadGateway, "UPLOAD_FAILED", "Failed to store avatar")
		return
	}

	user, err := h.svc.UpdateAvatar(r.Context(), authCtx.Email, avatarURL)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("avatar_updated",
		"user_id", user.ID,
		"size_bytes", header.Size,
	)

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// handleServiceError maps service errors to HTTP responses.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
