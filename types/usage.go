package types

import "time"

// UsageRecord is an immutable ledger entry written once per completed
// generation request.
type UsageRecord struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int       `json:"user_id" db:"user_id"`
	Topic       string    `json:"topic" db:"topic"`
	ContentType string    `json:"content_type" db:"content_type"`
	Level       string    `json:"level" db:"level"`
	Response    string    `json:"response" db:"response"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// LoginRecord is an append-only entry written once per successful login.
type LoginRecord struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	LoginTime time.Time `json:"login_time" db:"login_time"`
	IPAddress string    `json:"ip_address" db:"ip_address"`
	UserAgent string    `json:"user_agent" db:"user_agent"`
}
