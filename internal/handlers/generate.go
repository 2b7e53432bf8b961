package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eduwrite/apiserver/internal/services"
	"github.com/eduwrite/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const maxGenerateBody = 1 << 20

// GenerateHandler serves the content generation API.
type GenerateHandler struct {
	contentService *services.ContentService
	logger         logrus.FieldLogger
}

func NewGenerateHandler(contentService *services.ContentService, logger logrus.FieldLogger) *GenerateHandler {
	return &GenerateHandler{
		contentService: contentService,
		logger:         logger,
	}
}

// Routes registers the gated API routes.
func (h *GenerateHandler) Routes(r chi.Router) {
	r.Post("/api/generate", h.Generate)
}

func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	var req GenerateRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxGenerateBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Topic is required")
		return
	}

	result, err := h.contentService.Generate(r.Context(), identity.UserID, services.GenerateRequest{
		Topic:       req.Topic,
		ContentType: req.ContentType,
		Level:       req.Level,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			writeError(w, http.StatusBadRequest, "Topic is required")
		case errors.Is(err, services.ErrInsufficientCredits):
			writeError(w, http.StatusPaymentRequired, "No credits left")
		case errors.Is(err, services.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, store.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Database unavailable")
		default:
			h.logger.WithError(err).WithFields(logrus.Fields{
				"user_id":    identity.UserID,
				"request_id": middleware.GetReqID(r.Context()),
			}).Error("generate failed")
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		Content:     result.Content,
		CreditsLeft: result.CreditsLeft,
	})
}

type GenerateRequest struct {
	Topic       string `json:"topic"`
	ContentType string `json:"contentType"`
	Level       string `json:"level"`
}

type GenerateResponse struct {
	Content     string `json:"content"`
	CreditsLeft int    `json:"credits_left"`
}
