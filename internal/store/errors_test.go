package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "no rows", in: sql.ErrNoRows, want: ErrNotFound},
		{name: "unique", in: &pq.Error{Code: "23505", Constraint: "users_username_key"}, want: ErrAlreadyExists},
		{name: "check", in: &pq.Error{Code: "23514", Constraint: "users_credits_check"}, want: ErrCheckViolation},
		{name: "connection class", in: &pq.Error{Code: "08006"}, want: ErrUnavailable},
		{name: "admin shutdown", in: &pq.Error{Code: "57P01"}, want: ErrUnavailable},
		{name: "bad conn", in: driver.ErrBadConn, want: ErrUnavailable},
		{name: "dial", in: &net.OpError{Op: "dial", Err: errors.New("connection refused")}, want: ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translate(tt.in), tt.want)
		})
	}

	assert.NoError(t, translate(nil))

	other := errors.New("boom")
	assert.Same(t, other, translate(other))

	syntax := &pq.Error{Code: "42601"}
	assert.Equal(t, error(syntax), translate(syntax))
}

func TestTranslateKeepsContextErrors(t *testing.T) {
	for _, in := range []error{
		context.DeadlineExceeded,
		context.Canceled,
		fmt.Errorf("query users: %w", context.DeadlineExceeded),
	} {
		got := translate(in)
		assert.Equal(t, in, got)
		assert.NotErrorIs(t, got, ErrUnavailable)
	}
}
