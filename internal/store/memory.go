package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eduwrite/apiserver/types"
)

// Memory is a process-local store with the same semantics as the Postgres
// repositories: unique usernames, non-negative credits, conditional resets
// and newest-first listings. It backs local development (STORE_BACKEND=memory)
// and tests.
type Memory struct {
	mu      sync.Mutex
	users   map[int]types.User
	usage   []types.UsageRecord
	logins  []types.LoginRecord
	nextID  int
	nextRec int64
}

func NewMemory() *Memory {
	return &Memory{users: make(map[int]types.User)}
}

func (m *Memory) Users() *MemoryUserRepository {
	return &MemoryUserRepository{m: m}
}

func (m *Memory) Usage() *MemoryUsageRepository {
	return &MemoryUsageRepository{m: m}
}

func (m *Memory) Logins() *MemoryLoginRepository {
	return &MemoryLoginRepository{m: m}
}

type MemoryUserRepository struct {
	m *Memory
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id int) (types.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	user, ok := r.m.users[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return copyUser(user), nil
}

func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (types.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, user := range r.m.users {
		if user.Username == username {
			return copyUser(user), nil
		}
	}
	return types.User{}, ErrNotFound
}

func (r *MemoryUserRepository) Create(_ context.Context, user types.User) (types.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, existing := range r.m.users {
		if existing.Username == user.Username {
			return types.User{}, ErrAlreadyExists
		}
	}
	if user.Credits < 0 {
		return types.User{}, ErrCheckViolation
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.CreditsLastReset == nil {
		reset := user.CreatedAt
		user.CreditsLastReset = &reset
	}

	r.m.nextID++
	user.ID = r.m.nextID
	r.m.users[user.ID] = copyUser(user)
	return copyUser(user), nil
}

func (r *MemoryUserRepository) ResetCredits(_ context.Context, id, credits int, at, cutoff time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	user, ok := r.m.users[id]
	if !ok || !user.LastReset().Before(cutoff) {
		return false, nil
	}
	user.Credits = credits
	user.CreditsLastReset = &at
	r.m.users[id] = user
	return true, nil
}

func (r *MemoryUserRepository) DecrementCredits(_ context.Context, id int) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	user, ok := r.m.users[id]
	if !ok {
		return 0, ErrNotFound
	}
	if user.Credits-1 < 0 {
		return 0, ErrCheckViolation
	}
	user.Credits--
	r.m.users[id] = user
	return user.Credits, nil
}

type MemoryUsageRepository struct {
	m *Memory
}

func (r *MemoryUsageRepository) Create(_ context.Context, record types.UsageRecord) (types.UsageRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.users[record.UserID]; !ok {
		return types.UsageRecord{}, ErrNotFound
	}
	r.m.nextRec++
	record.ID = r.m.nextRec
	record.CreatedAt = time.Now().UTC()
	r.m.usage = append(r.m.usage, record)
	return record, nil
}

func (r *MemoryUsageRepository) ListByUser(_ context.Context, userID, offset, limit int) ([]types.UsageRecord, int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var matched []types.UsageRecord
	for _, record := range r.m.usage {
		if record.UserID == userID {
			matched = append(matched, record)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, offset, limit), len(matched), nil
}

type MemoryLoginRepository struct {
	m *Memory
}

func (r *MemoryLoginRepository) Create(_ context.Context, record types.LoginRecord) (types.LoginRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.users[record.UserID]; !ok {
		return types.LoginRecord{}, ErrNotFound
	}
	if record.LoginTime.IsZero() {
		record.LoginTime = time.Now().UTC()
	}
	r.m.nextRec++
	record.ID = r.m.nextRec
	r.m.logins = append(r.m.logins, record)
	return record, nil
}

func (r *MemoryLoginRepository) ListByUser(_ context.Context, userID, offset, limit int) ([]types.LoginRecord, int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var matched []types.LoginRecord
	for _, record := range r.m.logins {
		if record.UserID == userID {
			matched = append(matched, record)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].LoginTime.Equal(matched[j].LoginTime) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].LoginTime.After(matched[j].LoginTime)
	})
	return page(matched, offset, limit), len(matched), nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = DefaultListLimit
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}

func copyUser(user types.User) types.User {
	if user.CreditsLastReset != nil {
		reset := *user.CreditsLastReset
		user.CreditsLastReset = &reset
	}
	return user
}
