package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupported(t *testing.T) {
	assert.True(t, Supported("/in/batch.csv"))
	assert.True(t, Supported("batch.XML"))
	assert.False(t, Supported("batch.csv.imported"))
	assert.False(t, Supported("notes.txt"))
	assert.False(t, Supported(".batch.csv"))
}

func TestRunImportsExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.csv"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.xml"), []byte("b"), 0o600))

	imported := make(chan string, 10)
	importFn := func(ctx context.Context, path string) (int, error) {
		imported <- filepath.Base(path)
		if filepath.Ext(path) == ".xml" {
			return 0, errors.New("malformed")
		}
		return 1, nil
	}
	log, _ := test.NewNullLogger()
	w := New(dir, importFn, log)
	w.settle = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	got := map[string]bool{}
	for len(got) < 2 {
		select {
		case name := <-imported:
			got[name] = true
		case <-time.After(5 * time.Second):
			t.Fatal("existing files were not imported")
		}
	}

	tmp := filepath.Join(t.TempDir(), "new.csv")
	require.NoError(t, os.WriteFile(tmp, []byte("c"), 0o600))
	require.NoError(t, os.Rename(tmp, filepath.Join(dir, "new.csv")))

	select {
	case name := <-imported:
		assert.Equal(t, "new.csv", name)
	case <-time.After(5 * time.Second):
		t.Fatal("new file was not imported")
	}

	cancel()
	require.NoError(t, <-done)

	assert.FileExists(t, filepath.Join(dir, "old.csv"+ImportedSuffix))
	assert.FileExists(t, filepath.Join(dir, "bad.xml"+FailedSuffix))
	assert.FileExists(t, filepath.Join(dir, "new.csv"+ImportedSuffix))
}
