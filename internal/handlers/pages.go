package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/eduwrite/apiserver/config"
	"github.com/eduwrite/apiserver/internal/ai"
	"github.com/eduwrite/apiserver/internal/services"
	"github.com/eduwrite/apiserver/internal/session"
	"github.com/eduwrite/apiserver/internal/store"
	"github.com/eduwrite/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const homeHistoryLimit = 10

// PageHandler serves the signed-in pages as JSON documents.
type PageHandler struct {
	userService    *services.UserService
	historyService *services.HistoryService
	sessions       *session.Manager
	logger         logrus.FieldLogger
}

func NewPageHandler(
	userService *services.UserService,
	historyService *services.HistoryService,
	sessions *session.Manager,
	logger logrus.FieldLogger,
) *PageHandler {
	return &PageHandler{
		userService:    userService,
		historyService: historyService,
		sessions:       sessions,
		logger:         logger,
	}
}

// Routes registers the gated page routes.
func (h *PageHandler) Routes(r chi.Router) {
	r.Get("/home", h.Home)
	r.Get("/history", h.History)
	r.Get("/login-history", h.LoginHistory)
}

// Home applies the daily reset and returns the user with their most recent
// usage records.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	user, err := h.userService.LoadHome(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			// The account behind a still-valid cookie is gone.
			h.sessions.Clear(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		h.storeError(w, err, "load home")
		return
	}

	history, _, err := h.historyService.Usage(r.Context(), user.ID, 0, homeHistoryLimit)
	if err != nil {
		h.storeError(w, err, "load usage history")
		return
	}
	if history == nil {
		history = []types.UsageRecord{}
	}

	writeJSON(w, http.StatusOK, HomeResponse{
		User:         user,
		History:      history,
		DailyCredits: config.DailyCredits,
	})
}

func (h *PageHandler) History(w http.ResponseWriter, r *http.Request) {
	listPage(h, w, r, h.historyService.Usage)
}

func (h *PageHandler) LoginHistory(w http.ResponseWriter, r *http.Request) {
	listPage(h, w, r, h.historyService.Logins)
}

func listPage[T any](
	h *PageHandler,
	w http.ResponseWriter,
	r *http.Request,
	fetch func(ctx context.Context, userID, offset, limit int) ([]T, int, error),
) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := fetch(r.Context(), identity.UserID, offset, limit)
	if err != nil {
		h.storeError(w, err, "list history")
		return
	}
	if items == nil {
		items = []T{}
	}

	writeJSON(w, http.StatusOK, ListResponse[T]{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *PageHandler) storeError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, store.ErrUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	h.logger.WithError(err).Error(op)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// About describes the service.
func About(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AboutResponse{
		Name:         "EduWrite",
		Description:  "AI-generated educational and technical content with a daily credit allowance.",
		ContentTypes: ai.ContentTypes,
		DailyCredits: config.DailyCredits,
	})
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Healthz reports liveness. When db is non-nil it must answer a ping.
func Healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}

type HomeResponse struct {
	User         types.User          `json:"user"`
	History      []types.UsageRecord `json:"history"`
	DailyCredits int                 `json:"daily_credits"`
}

// ListResponse is the paginated list response payload.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type AboutResponse struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	ContentTypes []string `json:"content_types"`
	DailyCredits int      `json:"daily_credits"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
