package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegistered(t *testing.T) {
	for _, args := range [][]string{
		{"server"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"worker"},
		{"admin", "create"},
	} {
		found, _, err := rootCmd.Find(args)
		require.NoError(t, err, args)
		assert.Equal(t, args[len(args)-1], found.Name())
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "flag", firstNonEmpty("flag", "env"))
	assert.Equal(t, "env", firstNonEmpty("", "env"))
	assert.Empty(t, firstNonEmpty("", ""))
}
