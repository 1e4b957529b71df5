package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
)

func TestPullCmd_RequiresServer(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	t.Setenv(serverEnv, "")

	_, err := execute("pull", "water")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no server given")
}

func TestPullCmd_Pulls(t *testing.T) {
	mocks, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("pull", "water", "-s", "https://packs.example.org", "-n", "100")

	require.NoError(t, err)
	assert.Equal(t, []string{"https://packs.example.org"}, mocks.servers)
	assert.Equal(t, 100, mocks.sync.limit)
	assert.Contains(t, out, "Fetched 2 pages, stored 60 chunks.")
	assert.Contains(t, out, "Pack water is up to date.")
}

func TestPullCmd_ServerFromEnv(t *testing.T) {
	mocks, cleanup := setupTestServices()
	defer cleanup()
	t.Setenv(serverEnv, "https://env.example.org")

	_, err := execute("pull", "water")

	require.NoError(t, err)
	assert.Equal(t, []string{"https://env.example.org"}, mocks.servers)
}

func TestPullCmd_Resumed(t *testing.T) {
	mocks, cleanup := setupTestServices()
	defer cleanup()
	mocks.sync.result = &driving.PullResult{PackID: "water", Pages: 1, Stored: 50, Resumed: true}
	mocks.sync.err = domain.ErrStoreUnavailable

	out, err := execute("pull", "water", "-s", "https://packs.example.org")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "run again to resume")
	assert.Contains(t, out, "Resumed from saved cursor.")
	assert.NotContains(t, out, "up to date")
}

func TestPullCmd_Status(t *testing.T) {
	mocks, cleanup := setupTestServices()
	defer cleanup()
	mocks.sync.state = &domain.SyncState{
		PackID:   "water",
		Server:   "https://packs.example.org",
		Cursor:   "water-00-0049",
		Pulled:   50,
		LastSync: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	out, err := execute("pull", "water", "-s", "https://packs.example.org", "--status")

	require.NoError(t, err)
	assert.Contains(t, out, "Cursor:    water-00-0049")
	assert.Contains(t, out, "Pulled:    50")
	assert.NotContains(t, out, "Pulling")
}

func TestPullCmd_StatusWithoutState(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("pull", "water", "-s", "https://packs.example.org", "--status")

	require.NoError(t, err)
	assert.Contains(t, out, "No saved progress for water")
}

func TestPullCmd_Reset(t *testing.T) {
	mocks, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("pull", "water", "-s", "https://packs.example.org", "--reset")

	require.NoError(t, err)
	assert.Equal(t, []string{"water"}, mocks.sync.resets)
	assert.Contains(t, out, "Saved progress for water discarded.")
	assert.Contains(t, out, "Pulling water")
}

func TestOrNone(t *testing.T) {
	assert.Equal(t, "(start)", orNone(""))
	assert.Equal(t, "c", orNone("c"))
}
