package types

import "time"

// User represents an account in the system.
// It contains identity, credit balance, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Credits is the number of generation requests the user may still make
	// today. It is never negative.
	Credits int `json:"credits" db:"credits"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// CreditsLastReset is the timestamp of the most recent daily allowance
	// reset. Nil for accounts that were never reset; CreatedAt applies then.
	CreditsLastReset *time.Time `json:"credits_last_reset,omitempty" db:"credits_last_reset"`

	// IsAdmin marks administrator accounts. It is stored and reported but
	// not used for authorization.
	IsAdmin bool `json:"is_admin" db:"is_admin"`
}

// LastReset returns the effective reset timestamp in UTC.
func (u User) LastReset() time.Time {
	if u.CreditsLastReset != nil {
		return u.CreditsLastReset.UTC()
	}
	return u.CreatedAt.UTC()
}
