package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/eduwrite/apiserver/types"
)

// LoginRepository handles persistence for login audit records.
type LoginRepository struct {
	db *sql.DB
}

func NewLoginRepository(db *sql.DB) *LoginRepository {
	return &LoginRepository{db: db}
}

func (r *LoginRepository) Create(ctx context.Context, record types.LoginRecord) (types.LoginRecord, error) {
	if record.LoginTime.IsZero() {
		record.LoginTime = time.Now().UTC()
	}

	const query = `
		INSERT INTO logins (user_id, username, login_time, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		record.UserID,
		record.Username,
		record.LoginTime,
		record.IPAddress,
		record.UserAgent,
	).Scan(&record.ID); err != nil {
		return types.LoginRecord{}, translate(err)
	}
	return record, nil
}

func (r *LoginRepository) ListByUser(ctx context.Context, userID, offset, limit int) ([]types.LoginRecord, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = DefaultListLimit
	}

	const countQuery = `SELECT COUNT(1) FROM logins WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}

	const listQuery = `
		SELECT id, user_id, username, login_time, ip_address, user_agent
		FROM logins
		WHERE user_id = $1
		ORDER BY login_time DESC, id DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, listQuery, userID, offset, limit)
	if err != nil {
		return nil, 0, translate(err)
	}
	defer rows.Close()

	records := make([]types.LoginRecord, 0, limit)
	for rows.Next() {
		var record types.LoginRecord
		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.Username,
			&record.LoginTime,
			&record.IPAddress,
			&record.UserAgent,
		); err != nil {
			return nil, 0, translate(err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, translate(err)
	}

	return records, total, nil
}
