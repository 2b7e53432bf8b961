package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eduwrite/apiserver/internal/store"
	"github.com/eduwrite/apiserver/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	ResetCredits(ctx context.Context, id, credits int, at, cutoff time.Time) (bool, error)
	DecrementCredits(ctx context.Context, id int) (int, error)
}

// LoginRepository defines persistence operations for login records.
type LoginRepository interface {
	Create(ctx context.Context, record types.LoginRecord) (types.LoginRecord, error)
	ListByUser(ctx context.Context, userID, offset, limit int) ([]types.LoginRecord, int, error)
}

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	IsAdmin  bool
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo    UserRepository
	logins  LoginRepository
	credits *CreditAccountant
	logger  logrus.FieldLogger
}

func NewUserService(repo UserRepository, logins LoginRepository, credits *CreditAccountant, logger logrus.FieldLogger) *UserService {
	return &UserService{
		repo:    repo,
		logins:  logins,
		credits: credits,
		logger:  logger,
	}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return types.User{}, ErrUserNotFound
	}
	return user, err
}

// Register creates an account holding the full daily allowance.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return types.User{}, fmt.Errorf("%w: missing required fields", ErrValidation)
	}

	if _, err := s.repo.GetByUsername(ctx, in.Username); err == nil {
		return types.User{}, ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, fmt.Errorf("check user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hashed),
		Credits:      s.credits.DailyCredits(),
		IsAdmin:      in.IsAdmin,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return types.User{}, ErrUserExists
		}
		return types.User{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
		"is_admin": user.IsAdmin,
	}).Info("user registered")
	return user, nil
}

// Authenticate verifies the credentials and applies the daily credit reset
// to the returned user.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return types.User{}, ErrInvalidCredentials
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}

	return s.credits.ResetIfNeeded(ctx, user)
}

// RecordLogin appends a login audit record.
func (s *UserService) RecordLogin(ctx context.Context, user types.User, ipAddress, userAgent string) (types.LoginRecord, error) {
	record, err := s.logins.Create(ctx, types.LoginRecord{
		UserID:    user.ID,
		Username:  user.Username,
		LoginTime: time.Now().UTC(),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	})
	if err != nil {
		return types.LoginRecord{}, fmt.Errorf("record login: %w", err)
	}
	return record, nil
}

// LoadHome returns the user with the daily reset applied.
func (s *UserService) LoadHome(ctx context.Context, id int) (types.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	return s.credits.ResetIfNeeded(ctx, user)
}

// EnsureAdmin creates the administrator account if it does not exist yet.
// It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	if strings.TrimSpace(password) == "" {
		return false, nil
	}

	_, err := s.Register(ctx, RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
		IsAdmin:  true,
	})
	if errors.Is(err, ErrUserExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
