package watchdir

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitManualPath(t *testing.T) {
	watcher := New("manual", nil, nil)

	tests := []struct {
		name           string
		path           string
		wantRegion     string
		wantRegulation string
		wantMatched    bool
	}{
		{"pdf file", filepath.Join("manual", "eu", "gdpr.pdf"), "eu", "gdpr", true},
		{"html file", filepath.Join("manual", "usa", "hipaa.html"), "usa", "hipaa", true},
		{"txt file", filepath.Join("manual", "brazil", "lgpd.txt"), "brazil", "lgpd", true},
		{"uppercase extension", filepath.Join("manual", "eu", "dora.PDF"), "eu", "dora", true},
		{"unwatched extension", filepath.Join("manual", "eu", "gdpr.tmp"), "", "", false},
		{"no extension", filepath.Join("manual", "eu", "gdpr"), "", "", false},
		{"file directly in root", filepath.Join("manual", "gdpr.pdf"), "", "", false},
		{"too deeply nested", filepath.Join("manual", "eu", "extra", "gdpr.pdf"), "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regionID, regulationID, matched := watcher.splitManualPath(tt.path)
			assert.Equal(t, tt.wantMatched, matched)
			assert.Equal(t, tt.wantRegion, regionID)
			assert.Equal(t, tt.wantRegulation, regulationID)
		})
	}
}

func TestRun_InvokesHandlerForSettledFile(t *testing.T) {
	rootDir := filepath.Join(t.TempDir(), "manual")
	require.NoError(t, os.MkdirAll(filepath.Join(rootDir, "eu"), 0o755))

	var mu sync.Mutex
	var calls []string
	handler := func(ctx context.Context, regionID, regulationID, path string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, regionID+"/"+regulationID)
	}

	watcher := New(rootDir, handler, nil)
	watcher.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	// Give the watcher time to register its directories.
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(rootDir, "eu", "gdpr.pdf"), []byte("%PDF stub"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) > 0
	}, 3*time.Second, 25*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "eu/gdpr", calls[0])
	mu.Unlock()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRun_IgnoresUnwatchedFiles(t *testing.T) {
	rootDir := filepath.Join(t.TempDir(), "manual")
	require.NoError(t, os.MkdirAll(filepath.Join(rootDir, "eu"), 0o755))

	var mu sync.Mutex
	called := false
	handler := func(ctx context.Context, regionID, regulationID, path string) {
		mu.Lock()
		defer mu.Unlock()
		called = true
	}

	watcher := New(rootDir, handler, nil)
	watcher.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(rootDir, "eu", "notes.tmp"), []byte("scratch"), 0o644))
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	assert.False(t, called)
	mu.Unlock()

	cancel()
	<-done
}
