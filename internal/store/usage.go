package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/eduwrite/apiserver/types"
)

// UsageRepository handles persistence for the append-only usage ledger.
type UsageRepository struct {
	db *sql.DB
}

func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) Create(ctx context.Context, record types.UsageRecord) (types.UsageRecord, error) {
	record.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO usage (user_id, topic, content_type, level, response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		record.UserID,
		record.Topic,
		record.ContentType,
		record.Level,
		record.Response,
		record.CreatedAt,
	).Scan(&record.ID); err != nil {
		return types.UsageRecord{}, translate(err)
	}
	return record, nil
}

// ListByUser returns a page of the user's records, newest first, and the
// total number of records the user has.
func (r *UsageRepository) ListByUser(ctx context.Context, userID, offset, limit int) ([]types.UsageRecord, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = DefaultListLimit
	}

	const countQuery = `SELECT COUNT(1) FROM usage WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}

	const listQuery = `
		SELECT id, user_id, topic, content_type, level, response, created_at
		FROM usage
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, listQuery, userID, offset, limit)
	if err != nil {
		return nil, 0, translate(err)
	}
	defer rows.Close()

	records := make([]types.UsageRecord, 0, limit)
	for rows.Next() {
		var record types.UsageRecord
		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.Topic,
			&record.ContentType,
			&record.Level,
			&record.Response,
			&record.CreatedAt,
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
