package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/eduwrite/apiserver/internal/metrics"
	"github.com/eduwrite/apiserver/internal/services"
	"github.com/eduwrite/apiserver/internal/session"
	"github.com/eduwrite/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// AuthHandler serves the account endpoints and the session gate.
type AuthHandler struct {
	userService *services.UserService
	sessions    *session.Manager
	validate    *validator.Validate
	logger      logrus.FieldLogger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, sessions *session.Manager, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		sessions:    sessions,
		validate:    validator.New(),
		logger:      logger,
	}
}

// Routes registers the public account routes.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)
	r.Get("/logout", h.Logout)
}

// RequireSession admits requests carrying a valid session cookie and
// redirects everything else to /login.
func (h *AuthHandler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := h.sessions.Identity(r)
		if err != nil {
			if errors.Is(err, session.ErrInvalidSession) {
				h.sessions.Clear(w)
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}

// Index sends signed-in users home and everyone else to the login page.
func (h *AuthHandler) Index(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.Identity(r); err == nil {
		http.Redirect(w, r, "/home", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FormResponse{
		Page:   "login",
		Action: "/login",
		Fields: []string{"username", "password"},
	})
}

func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FormResponse{
		Page:   "register",
		Action: "/register",
		Fields: []string{"username", "email", "password"},
	})
}

// Login verifies the submitted form, starts a session, records the login and
// redirects to /home.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithField("request_id", middleware.GetReqID(r.Context()))

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := h.userService.Authenticate(r.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			metrics.RecordLogin("failed")
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, store.ErrUnavailable):
			metrics.RecordLogin("error")
			log.WithError(err).Error("login: store unavailable")
			writeError(w, http.StatusServiceUnavailable, "Database unavailable")
		default:
			metrics.RecordLogin("error")
			log.WithError(err).Error("login failed")
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	if _, err := h.sessions.Issue(w, user); err != nil {
		metrics.RecordLogin("error")
		log.WithError(err).Error("issue session")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if _, err := h.userService.RecordLogin(r.Context(), user, clientIP(r), r.UserAgent()); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("login not recorded")
	}

	metrics.RecordLogin("ok")
	log.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("user logged in")
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

// Register creates an account from the submitted form and redirects to
// /login.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	form := RegisterForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	if err := h.validate.Struct(form); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	_, err := h.userService.Register(r.Context(), services.RegisterInput{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserExists):
			writeError(w, http.StatusConflict, "User already exists")
		case errors.Is(err, services.ErrValidation):
			writeError(w, http.StatusBadRequest, "missing required fields")
		case errors.Is(err, store.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Database unavailable")
		default:
			h.logger.WithError(err).Error("register failed")
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

type RegisterForm struct {
	Username string `validate:"required,max=80"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required"`
}

type FormResponse struct {
	Page   string   `json:"page"`
	Action string   `json:"action"`
	Fields []string `json:"fields"`
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	field := strings.ToLower(verrs[0].Field())
	switch verrs[0].Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "email is invalid"
	case "max":
		return field + " is too long"
	}
	return field + " is invalid"
}
