package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eduwrite/apiserver/internal/metrics"
	"github.com/eduwrite/apiserver/internal/store"
	"github.com/eduwrite/apiserver/types"
	"github.com/sirupsen/logrus"
)

// CreditAccountant applies the daily allowance reset and per-request debits.
type CreditAccountant struct {
	users  UserRepository
	daily  int
	now    func() time.Time
	logger logrus.FieldLogger
}

func NewCreditAccountant(users UserRepository, daily int, logger logrus.FieldLogger) *CreditAccountant {
	return &CreditAccountant{
		users:  users,
		daily:  daily,
		now:    time.Now,
		logger: logger,
	}
}

// SetClock replaces the time source.
func (a *CreditAccountant) SetClock(now func() time.Time) {
	a.now = now
}

// DailyCredits returns the allowance users are reset to.
func (a *CreditAccountant) DailyCredits() int {
	return a.daily
}

// ResetIfNeeded restores the daily allowance when the current UTC calendar
// date is later than the date of the user's last reset. The store applies the
// update conditionally, so a reset happens at most once per calendar day even
// when several requests race; the loser re-reads the winner's row.
func (a *CreditAccountant) ResetIfNeeded(ctx context.Context, user types.User) (types.User, error) {
	now := a.now().UTC()
	cutoff := startOfDay(now)
	if !user.LastReset().Before(cutoff) {
		return user, nil
	}

	changed, err := a.users.ResetCredits(ctx, user.ID, a.daily, now, cutoff)
	if err != nil {
		return types.User{}, fmt.Errorf("reset credits: %w", err)
	}
	if !changed {
		fresh, err := a.users.GetByID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return types.User{}, ErrUserNotFound
			}
			return types.User{}, fmt.Errorf("reload user after reset: %w", err)
		}
		return fresh, nil
	}

	metrics.RecordCreditReset()
	a.logger.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"last_reset": user.LastReset(),
		"credits":    a.daily,
	}).Info("daily credits reset")

	user.Credits = a.daily
	user.CreditsLastReset = &now
	return user, nil
}

// Debit takes one credit from the user. The caller checks the balance first;
// the store's non-negative constraint is the only guard against a concurrent
// request taking the last credit in between.
func (a *CreditAccountant) Debit(ctx context.Context, user types.User) (types.User, error) {
	credits, err := a.users.DecrementCredits(ctx, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCheckViolation):
			return types.User{}, ErrInsufficientCredits
		case errors.Is(err, store.ErrNotFound):
			return types.User{}, ErrUserNotFound
		}
		return types.User{}, fmt.Errorf("debit credits: %w", err)
	}

	metrics.RecordDebit()
	user.Credits = credits
	return user, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
