package cli

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchFile_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pack_id: a\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, 50*time.Millisecond, func(context.Context) {
			calls.Add(1)
		})
	}()

	// Let the watcher register before writing
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("pack_id: b\n"), 0o600))
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchFile did not stop after cancel")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatchFile_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pack_id: a\n"), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var calls atomic.Int32
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o600) //nolint:errcheck // test noise
	}()

	err := watchFile(ctx, path, 20*time.Millisecond, func(context.Context) { calls.Add(1) })

	assert.NoError(t, err)
	assert.Zero(t, calls.Load())
}

func TestWatchFile_MissingDirectory(t *testing.T) {
	err := watchFile(context.Background(), "/does/not/exist/pack.yaml", time.Millisecond, func(context.Context) {})

	assert.Error(t, err)
}
