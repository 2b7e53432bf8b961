package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/eduwrite/apiserver/internal/store"
	"github.com/eduwrite/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryUsageLimits(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "alice", 5)
	for i := 0; i < store.MaxListLimit+5; i++ {
		_, err := f.mem.Usage().Create(context.Background(), types.UsageRecord{UserID: user.ID, Topic: fmt.Sprintf("topic %d", i)})
		require.NoError(t, err)
	}
	history := NewHistoryService(f.mem.Usage(), f.mem.Logins())

	records, total, err := history.Usage(context.Background(), user.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, store.MaxListLimit+5, total)
	assert.Len(t, records, store.DefaultListLimit)

	records, _, err = history.Usage(context.Background(), user.ID, -3, 500)
	require.NoError(t, err)
	assert.Len(t, records, store.MaxListLimit)
	assert.Equal(t, fmt.Sprintf("topic %d", store.MaxListLimit+4), records[0].Topic)
}
