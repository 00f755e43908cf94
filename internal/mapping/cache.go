package mapping

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ohler55/ojg/oj"

	"beamer/internal/logging"
)

// The persisted cache is one JSON object holding the three stores, each
// entity serialized exactly like an outbound state snapshot. Loading replays
// every entry through the upsert event path so resolution and side effects
// re-run naturally; saving is debounced behind the cache-dirty flag and
// flushed every tick plus once at shutdown.

// LoadCache replays a previously saved cache file. A missing file is not an
// error; a fresh daemon simply starts empty.
func (m *Manager) LoadCache() error {
	if m.cachePath == "" {
		return nil
	}
	data, err := os.ReadFile(m.cachePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cache: %w", err)
	}

	parsed, err := oj.Parse(data)
	if err != nil {
		return fmt.Errorf("parse cache: %w", err)
	}
	root := blobMap(parsed)
	if root == nil {
		return fmt.Errorf("parse cache: not a JSON object")
	}

	replay := func(key string, process func(map[string]any, bool)) int {
		entries, _ := root[key].([]any)
		count := 0
		for _, raw := range entries {
			if entry := blobMap(raw); entry != nil {
				process(entry, false)
				count++
			}
		}
		return count
	}

	contexts := replay("renderContexts", m.ProcessRenderContextEvent)
	surfaces := replay("mappingSurfaces", m.ProcessMappingSurfaceEvent)
	mappings := replay("mappings", m.ProcessMappingEvent)

	// Replay marked the cache dirty; the file already holds this state.
	m.cacheDirty = false

	m.logger.Info("cache loaded",
		logging.Int("contexts", contexts),
		logging.Int("surfaces", surfaces),
		logging.Int("mappings", mappings),
	)
	return nil
}

func (m *Manager) flushCache() {
	if !m.cacheDirty || m.cachePath == "" {
		return
	}
	if err := m.saveCache(); err != nil {
		m.logger.Error("cache save failed", logging.Error(err))
		return
	}
	m.cacheDirty = false
}

func (m *Manager) saveCache() error {
	contexts := make([]any, 0, len(m.contexts))
	for _, c := range m.RenderContexts() {
		contexts = append(contexts, m.contextState(c))
	}
	surfaces := make([]any, 0, len(m.surfaces))
	for _, s := range m.MappingSurfaces() {
		surfaces = append(surfaces, m.surfaceState(s))
	}
	mappings := make([]any, 0, len(m.mappings))
	for _, mp := range m.Mappings() {
		mappings = append(mappings, m.mappingState(mp))
	}

	document := map[string]any{
		"renderContexts":  contexts,
		"mappingSurfaces": surfaces,
		"mappings":        mappings,
	}

	if err := os.MkdirAll(filepath.Dir(m.cachePath), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	body := oj.JSON(document, &oj.Options{Sort: true, Indent: 2})
	tmp := m.cachePath + ".tmp"
	if err := os.WriteFile(tmp, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp, m.cachePath); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}
