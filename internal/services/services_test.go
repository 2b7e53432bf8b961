package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eduwrite/apiserver/internal/ai"
	"github.com/eduwrite/apiserver/internal/store"
	"github.com/eduwrite/apiserver/types"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

const testDailyCredits = 50000

type fakeGenerator struct {
	out     string
	err     error
	calls   int
	prompts []ai.Prompt
}

func (f *fakeGenerator) Generate(_ context.Context, prompt ai.Prompt) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.out, f.err
}

type fakePublisher struct {
	records []types.UsageRecord
	err     error
}

func (f *fakePublisher) PublishUsage(_ context.Context, record types.UsageRecord) error {
	f.records = append(f.records, record)
	return f.err
}

// countingUsers wraps a user repository and counts writes.
type countingUsers struct {
	UserRepository
	resets int
	debits int
}

func (c *countingUsers) ResetCredits(ctx context.Context, id, credits int, at, cutoff time.Time) (bool, error) {
	c.resets++
	return c.UserRepository.ResetCredits(ctx, id, credits, at, cutoff)
}

func (c *countingUsers) DecrementCredits(ctx context.Context, id int) (int, error) {
	c.debits++
	return c.UserRepository.DecrementCredits(ctx, id)
}

// blockingGenerator waits for its context to end, like a model call that
// runs past the request deadline.
type blockingGenerator struct{}

func (blockingGenerator) Generate(ctx context.Context, _ ai.Prompt) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// ctxUsers and ctxUsage fail on a finished context the way database/sql does.
type ctxUsers struct {
	UserRepository
}

func (c ctxUsers) DecrementCredits(ctx context.Context, id int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return c.UserRepository.DecrementCredits(ctx, id)
}

type ctxUsage struct {
	UsageRepository
}

func (c ctxUsage) Create(ctx context.Context, record types.UsageRecord) (types.UsageRecord, error) {
	if err := ctx.Err(); err != nil {
		return types.UsageRecord{}, err
	}
	return c.UsageRepository.Create(ctx, record)
}

type failingUsage struct {
	UsageRepository
	err error
}

func (f *failingUsage) Create(context.Context, types.UsageRecord) (types.UsageRecord, error) {
	return types.UsageRecord{}, f.err
}

type fixture struct {
	mem       *store.Memory
	users     *countingUsers
	credits   *CreditAccountant
	generator *fakeGenerator
	publisher *fakePublisher
	logger    *logrus.Logger
	hook      *logtest.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	mem := store.NewMemory()
	users := &countingUsers{UserRepository: mem.Users()}
	return &fixture{
		mem:       mem,
		users:     users,
		credits:   NewCreditAccountant(users, testDailyCredits, logger),
		generator: &fakeGenerator{out: "generated text"},
		publisher: &fakePublisher{},
		logger:    logger,
		hook:      hook,
	}
}

func (f *fixture) contentService(gen ai.Generator) *ContentService {
	return NewContentService(f.users, f.mem.Usage(), f.credits, gen, f.publisher, f.logger)
}

func (f *fixture) userService() *UserService {
	return NewUserService(f.users, f.mem.Logins(), f.credits, f.logger)
}

func (f *fixture) createUser(t *testing.T, username string, credits int) types.User {
	t.Helper()
	user, err := f.mem.Users().Create(context.Background(), types.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Credits:      credits,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) usageCount(t *testing.T, userID int) int {
	t.Helper()
	_, total, err := f.mem.Usage().ListByUser(context.Background(), userID, 0, 100)
	require.NoError(t, err)
	return total
}

var errBoom = errors.New("boom")
