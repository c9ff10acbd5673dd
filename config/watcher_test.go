package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileWatcher_DetectsCreateWriteRemove(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFileWatcher(dir, []string{".yaml"}, WithDebounceDelay(10*time.Millisecond))
	require.NoError(t, err)

	var mu sync.Mutex
	var ops []FileOp
	w.OnChange(func(evt FileEvent) {
		mu.Lock()
		ops = append(ops, evt.Op)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	path := filepath.Join(dir, "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id: a"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ops) >= 1 && ops[0] == FileOpCreate
	}, 3*time.Second, 20*time.Millisecond)

	time.Sleep(1100 * time.Millisecond) // past one poll tick so the write is a distinct event
	require.NoError(t, os.WriteFile(path, []byte("id: a\nname: A"), 0o644))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, op := range ops {
			if op == FileOpWrite {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, op := range ops {
			if op == FileOpRemove {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)
}

func TestFileWatcher_PrunesGitAndTargetDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config.yaml"), []byte("x"), 0o644))

	w, err := NewFileWatcher(dir, []string{".yaml"}, WithWatcherLogger(zap.NewNop()))
	require.NoError(t, err)

	var found []string
	err = w.walk(func(path string, modTime time.Time) { found = append(found, path) })
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFileWatcher_IgnoresUnmatchedExtensions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	w, err := NewFileWatcher(dir, []string{".yaml"})
	require.NoError(t, err)

	var found []string
	require.NoError(t, w.walk(func(path string, modTime time.Time) { found = append(found, path) }))
	assert.Empty(t, found)
}
