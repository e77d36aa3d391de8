package filesystem

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func TestNewStore(t *testing.T) {
	t.Run("creates root", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "docs")

		s, err := NewStore(root)

		require.NoError(t, err)
		assert.DirExists(t, root)
		assert.Equal(t, root, s.Root())
	})

	t.Run("empty root", func(t *testing.T) {
		_, err := NewStore("")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := NewStore(t.TempDir(), WithInclude("[unclosed"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestStore_List(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.pdf", "b")
	writeFile(t, root, "a.pdf", "a")
	writeFile(t, root, "notes.txt", "n")
	writeFile(t, root, "sub/c.pdf", "c")
	writeFile(t, root, ".hidden.pdf", "h")
	writeFile(t, root, ".git/config", "g")
	writeFile(t, root, "chat_logs/alice_2024-01-01_00-00-00.json", "{}")

	s, err := NewStore(root)
	require.NoError(t, err)

	names, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"a.pdf", "b.pdf", "chat_logs/alice_2024-01-01_00-00-00.json", "notes.txt", "sub/c.pdf",
	}, names)

	logs, err := s.List(context.Background(), "chat_logs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"chat_logs/alice_2024-01-01_00-00-00.json"}, logs)
}

func TestStore_ListPatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.pdf", "a")
	writeFile(t, root, "drafts/b.pdf", "b")
	writeFile(t, root, "c.txt", "c")

	s, err := NewStore(root, WithInclude("**/*.pdf"), WithExclude("drafts/**"))
	require.NoError(t, err)

	names, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf"}, names)
}

func TestStore_ListCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.pdf", "a")
	s, err := NewStore(root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.List(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_StoreAndFetch(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, "chat_logs/bob_x.json", strings.NewReader(`{"a":1}`)))
	require.NoError(t, s.Store(ctx, "chat_logs/bob_x.json", strings.NewReader(`{"a":2}`)))

	rc, err := s.Fetch(ctx, "chat_logs/bob_x.json")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(data))

	names, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"chat_logs/bob_x.json"}, names, "no temp files left behind")
}

func TestStore_FetchMissing(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Fetch(context.Background(), "nope.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_RejectsEscapingNames(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"", "../outside.pdf", "a/../../outside.pdf", "."} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Fetch(ctx, name)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.ErrorIs(t, s.Store(ctx, name, strings.NewReader("x")), domain.ErrInvalidInput)
		})
	}
}

func TestStore_Watch(t *testing.T) {
	root := t.TempDir()
	s, err := NewStore(root, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu   sync.Mutex
		seen []string
	)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, func(name string) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, name)
		})
	}()

	// Give the watcher time to register the root.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, root, "new.pdf", "x")
	writeFile(t, root, ".hidden.pdf", "x")
	require.NoError(t, s.Store(ctx, "stored.pdf", strings.NewReader("y")))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return contains(seen, "new.pdf") && contains(seen, "stored.pdf")
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.NotContains(t, seen, ".hidden.pdf")
}

func contains(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
