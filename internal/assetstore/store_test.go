package assetstore_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"beamer/internal/assetstore"
)

type completion struct {
	id      string
	path    string
	message string
	failed  bool
}

type collector struct {
	done chan completion
}

func newCollector() *collector {
	return &collector{done: make(chan completion, 8)}
}

func (c *collector) ready(id, path string) {
	c.done <- completion{id: id, path: path}
}

func (c *collector) failed(id, message string) {
	c.done <- completion{id: id, message: message, failed: true}
}

func (c *collector) wait(t *testing.T) completion {
	t.Helper()
	select {
	case result := <-c.done:
		return result
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for download completion")
		return completion{}
	}
}

func openStore(t *testing.T, baseURL string, events *collector) *assetstore.Store {
	t.Helper()
	store, err := assetstore.Open(assetstore.Options{
		BaseURL:  baseURL,
		CacheDir: t.TempDir(),
		OnReady:  events.ready,
		OnFailed: events.failed,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func TestFetchDownloadsAndIndexes(t *testing.T) {
	var mu sync.Mutex
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.URL.Path)
		mu.Unlock()
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	events := newCollector()
	store := openStore(t, server.URL, events)

	if _, ok := store.CachedPath("poster-1"); ok {
		t.Fatal("asset cached before any fetch")
	}

	store.Fetch("poster-1")
	result := events.wait(t)
	if result.failed {
		t.Fatalf("download failed: %s", result.message)
	}
	if result.id != "poster-1" {
		t.Fatalf("completion id = %q", result.id)
	}
	if !strings.HasSuffix(result.path, "poster-1.png") {
		t.Fatalf("cached path = %q, want .png extension", result.path)
	}
	data, err := os.ReadFile(result.path)
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("cached file contents = %q, err %v", data, err)
	}

	mu.Lock()
	if len(requests) != 1 || requests[0] != "/poster-1" {
		t.Fatalf("requests = %v", requests)
	}
	mu.Unlock()

	path, ok := store.CachedPath("poster-1")
	if !ok || path != result.path {
		t.Fatalf("CachedPath = %q, %v", path, ok)
	}
}

func TestFetchDeduplicatesInFlight(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		<-release
		_, _ = w.Write([]byte("body"))
	}))
	defer server.Close()

	events := newCollector()
	store := openStore(t, server.URL, events)

	store.Fetch("slow-asset")
	store.Fetch("slow-asset")
	store.Fetch("slow-asset")
	close(release)
	events.wait(t)

	mu.Lock()
	defer mu.Unlock()
	if hits != 1 {
		t.Fatalf("server hit %d times, want 1", hits)
	}
}

func TestFetchReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	events := newCollector()
	store := openStore(t, server.URL, events)

	store.Fetch("missing-asset")
	result := events.wait(t)
	if !result.failed {
		t.Fatal("404 download reported success")
	}
	if !strings.Contains(result.message, "404") {
		t.Fatalf("failure message = %q", result.message)
	}
	if _, ok := store.CachedPath("missing-asset"); ok {
		t.Fatal("failed download left an index entry")
	}
}

func TestIndexSurvivesReopen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("body"))
	}))
	defer server.Close()

	dir := t.TempDir()
	events := newCollector()
	store, err := assetstore.Open(assetstore.Options{
		BaseURL:  server.URL,
		CacheDir: dir,
		OnReady:  events.ready,
		OnFailed: events.failed,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	store.Fetch("keeper")
	result := events.wait(t)
	if result.failed {
		t.Fatalf("download failed: %s", result.message)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := assetstore.Open(assetstore.Options{BaseURL: server.URL, CacheDir: dir})
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	path, ok := reopened.CachedPath("keeper")
	if !ok || path != result.path {
		t.Fatalf("CachedPath after reopen = %q, %v", path, ok)
	}
}

func TestCachedPathPrunesMissingFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("body"))
	}))
	defer server.Close()

	events := newCollector()
	store := openStore(t, server.URL, events)
	store.Fetch("ephemeral")
	result := events.wait(t)
	if result.failed {
		t.Fatalf("download failed: %s", result.message)
	}

	if err := os.Remove(result.path); err != nil {
		t.Fatalf("remove cached file: %v", err)
	}
	if _, ok := store.CachedPath("ephemeral"); ok {
		t.Fatal("stale index row not pruned")
	}
}

func TestListRemoveClear(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("body"))
	}))
	defer server.Close()

	events := newCollector()
	store := openStore(t, server.URL, events)
	for _, id := range []string{"a", "b"} {
		store.Fetch(id)
		if result := events.wait(t); result.failed {
			t.Fatalf("download %s failed: %s", id, result.message)
		}
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("%d entries, want 2", len(entries))
	}

	if err := store.Remove("a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := store.CachedPath("a"); ok {
		t.Fatal("removed asset still cached")
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err = store.List()
	if err != nil {
		t.Fatalf("list after clear: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("%d entries after clear", len(entries))
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "b.bin")); !os.IsNotExist(err) {
		t.Fatal("cleared asset file still on disk")
	}
}

func TestOpenRequiresCacheDir(t *testing.T) {
	if _, err := assetstore.Open(assetstore.Options{BaseURL: "http://localhost"}); err == nil {
		t.Fatal("open without cache dir succeeded")
	}
}
