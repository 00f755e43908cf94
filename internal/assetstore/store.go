package assetstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"beamer/internal/logging"
)

// HTTPDoer describes the HTTP client used for asset downloads.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Store.
type Options struct {
	// BaseURL is the asset endpoint; assets are fetched from BaseURL/{id}.
	BaseURL string
	// CacheDir holds the downloaded files and the index database.
	CacheDir string
	// RequestTimeout bounds a single download. Zero means 30 seconds.
	RequestTimeout time.Duration
	// Client overrides the HTTP client, mainly for tests.
	Client HTTPDoer
	Logger *slog.Logger

	// OnReady and OnFailed report download completion. Both fire from a
	// background goroutine.
	OnReady  func(assetID, path string)
	OnFailed func(assetID, message string)
}

// Entry describes one cached asset.
type Entry struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	SizeBytes   int64     `json:"sizeBytes"`
	ContentType string    `json:"contentType"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// Store is the download client plus its on-disk cache.
type Store struct {
	baseURL  string
	dir      string
	timeout  time.Duration
	client   HTTPDoer
	logger   *slog.Logger
	onReady  func(assetID, path string)
	onFailed func(assetID, message string)

	db *sql.DB

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

// Open initializes the cache directory and its index database.
func Open(opts Options) (*Store, error) {
	if opts.CacheDir == "" {
		return nil, errors.New("asset cache directory not configured")
	}
	if err := os.MkdirAll(opts.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset cache directory: %w", err)
	}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	dbPath := filepath.Join(opts.CacheDir, "assets.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		baseURL:  strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		dir:      opts.CacheDir,
		timeout:  timeout,
		client:   client,
		logger:   logging.NewComponentLogger(opts.Logger, "assetstore"),
		onReady:  opts.OnReady,
		onFailed: opts.OnFailed,
		db:       db,
		inflight: map[string]struct{}{},
	}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close waits for in-flight downloads and closes the index database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.wg.Wait()
	return s.db.Close()
}

// Dir returns the cache directory.
func (s *Store) Dir() string { return s.dir }

// CachedPath returns the on-disk path for an asset id when the index knows it
// and the file is still present. A stale index row is pruned on the spot.
func (s *Store) CachedPath(assetID string) (string, bool) {
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return "", false
	}

	var path string
	row := s.db.QueryRow("SELECT path FROM assets WHERE id = ?", assetID)
	if err := row.Scan(&path); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("asset index lookup failed",
				logging.String(logging.FieldAssetID, assetID),
				logging.Error(err))
		}
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		_, _ = s.db.Exec("DELETE FROM assets WHERE id = ?", assetID)
		return "", false
	}
	return path, true
}

// Fetch starts a background download for an asset id. A fetch already in
// flight for the same id is not duplicated.
func (s *Store) Fetch(assetID string) {
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return
	}

	s.mu.Lock()
	if _, busy := s.inflight[assetID]; busy {
		s.mu.Unlock()
		return
	}
	s.inflight[assetID] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.download(assetID)
}

func (s *Store) download(assetID string) {
	defer func() {
		s.mu.Lock()
		delete(s.inflight, assetID)
		s.mu.Unlock()
		s.wg.Done()
	}()

	path, err := s.fetchToDisk(assetID)
	if err != nil {
		s.logger.Warn("asset download failed",
			logging.String(logging.FieldAssetID, assetID),
			logging.Error(err))
		if s.onFailed != nil {
			s.onFailed(assetID, err.Error())
		}
		return
	}

	s.logger.Info("asset downloaded",
		logging.String(logging.FieldAssetID, assetID),
		logging.String("path", path))
	if s.onReady != nil {
		s.onReady(assetID, path)
	}
}

func (s *Store) fetchToDisk(assetID string) (string, error) {
	if s.baseURL == "" {
		return "", errors.New("asset store URL not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	assetURL := s.baseURL + "/" + url.PathEscape(assetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return "", fmt.Errorf("build asset request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch asset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("asset endpoint returned %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	path := filepath.Join(s.dir, cacheFileName(assetID, contentType))

	tmp, err := os.CreateTemp(s.dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	size, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write asset: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("place asset: %w", err)
	}

	if err := s.record(assetID, path, size, contentType); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Store) record(assetID, path string, size int64, contentType string) error {
	_, err := s.db.Exec(
		`INSERT INTO assets (id, path, size_bytes, content_type, fetched_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             path = excluded.path,
             size_bytes = excluded.size_bytes,
             content_type = excluded.content_type,
             fetched_at = excluded.fetched_at`,
		assetID,
		path,
		size,
		contentType,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("index asset: %w", err)
	}
	return nil
}

// List returns every indexed asset, newest first.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query(
		"SELECT id, path, size_bytes, content_type, fetched_at FROM assets ORDER BY fetched_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var contentType sql.NullString
		var fetchedAt string
		if err := rows.Scan(&entry.ID, &entry.Path, &entry.SizeBytes, &contentType, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scan asset row: %w", err)
		}
		entry.ContentType = contentType.String
		if ts, parseErr := time.Parse(time.RFC3339Nano, fetchedAt); parseErr == nil {
			entry.FetchedAt = ts
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Remove drops one asset from the index and deletes its file.
func (s *Store) Remove(assetID string) error {
	path, ok := s.CachedPath(assetID)
	if !ok {
		return fmt.Errorf("asset %q not found in cache", assetID)
	}
	if _, err := s.db.Exec("DELETE FROM assets WHERE id = ?", assetID); err != nil {
		return fmt.Errorf("remove asset index row: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove asset file: %w", err)
	}
	return nil
}

// Clear drops every cached asset and its file.
func (s *Store) Clear() error {
	entries, err := s.List()
	if err != nil {
		return err
	}
	if _, err := s.db.Exec("DELETE FROM assets"); err != nil {
		return fmt.Errorf("clear asset index: %w", err)
	}
	for _, entry := range entries {
		if err := os.Remove(entry.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove asset file: %w", err)
		}
	}
	return nil
}

// cacheFileName derives a safe file name for an asset id, appending an
// extension matching the content type so image decoders can sniff formats
// from the path when they need to.
func cacheFileName(assetID, contentType string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		default:
			return r
		}
	}, assetID)

	switch {
	case strings.HasPrefix(contentType, "image/png"):
		return name + ".png"
	case strings.HasPrefix(contentType, "image/jpeg"):
		return name + ".jpg"
	default:
		return name + ".bin"
	}
}
