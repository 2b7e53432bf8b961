package services

import (
	"context"

	"github.com/eduwrite/apiserver/internal/store"
	"github.com/eduwrite/apiserver/types"
)

// HistoryService lists a user's usage and login records, newest first.
type HistoryService struct {
	usage  UsageRepository
	logins LoginRepository
}

func NewHistoryService(usage UsageRepository, logins LoginRepository) *HistoryService {
	return &HistoryService{usage: usage, logins: logins}
}

func (s *HistoryService) Usage(ctx context.Context, userID, offset, limit int) ([]types.UsageRecord, int, error) {
	return s.usage.ListByUser(ctx, userID, clampOffset(offset), clampLimit(limit))
}

func (s *HistoryService) Logins(ctx context.Context, userID, offset, limit int) ([]types.LoginRecord, int, error) {
	return s.logins.ListByUser(ctx, userID, clampOffset(offset), clampLimit(limit))
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func clampLimit(limit int) int {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}
	if limit > store.MaxListLimit {
		limit = store.MaxListLimit
	}
	return limit
}
