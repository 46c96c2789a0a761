package watcher_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vippsas/piqued/internal/watcher"
)

func TestWatcher_DebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "q.sql")
	require.NoError(t, os.WriteFile(file, []byte("select 1;"), 0o644))

	var calls int32
	w, err := watcher.New(dir, func(path string) {
		atomic.AddInt32(&calls, 1)
	}, logrus.StandardLogger())
	require.NoError(t, err)
	defer w.Close()

	go w.Run()

	// Two rapid writes within the debounce window.
	require.NoError(t, os.WriteFile(file, []byte("select 2;"), 0o644))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, os.WriteFile(file, []byte("select 3;"), 0o644))

	time.Sleep(watcher.DebounceWindow + 150*time.Millisecond)

	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWatcher_IgnoresUnrecognizedExtensions(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("hello"), 0o644))

	var calls int32
	w, err := watcher.New(dir, func(path string) {
		atomic.AddInt32(&calls, 1)
	}, logrus.StandardLogger())
	require.NoError(t, err)
	defer w.Close()

	go w.Run()

	require.NoError(t, os.WriteFile(file, []byte("changed"), 0o644))
	time.Sleep(watcher.DebounceWindow + 150*time.Millisecond)

	require.Equal(t, int32(0), atomic.LoadInt32(&calls))
}
