package catalog

import (
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// debounceInterval is how long the watcher waits after the last change
// before reloading, so editors that write in bursts trigger one reload.
const debounceInterval = 500 * time.Millisecond

// snapshot is one immutable parse of the catalog file. The ordered slice
// preserves the document order of the categories mapping so equal Order
// values never reorder.
type snapshot struct {
	ordered []Category
	byID    map[string]CategoryData
}

// Loader reads the catalog YAML and serves read-only snapshots of it.
// Reloads swap the snapshot atomically; a failed reload keeps the previous
// one.
type Loader struct {
	path string

	mu      sync.RWMutex
	current *snapshot

	watcher       *fsnotify.Watcher
	debounceTimer *time.Timer
	debounceMu    sync.Mutex
	stopCh        chan struct{}
}

// NewLoader creates a loader for the given catalog file and performs the
// initial load. Load failure at construction is fatal: the portal never
// serves without a catalog.
func NewLoader(path string) (*Loader, error) {
	loader := &Loader{path: path, stopCh: make(chan struct{})}
	if err := loader.Load(); err != nil {
		return nil, err
	}
	return loader, nil
}

// Load parses and validates the catalog file and swaps it in.
func (l *Loader) Load() error {
	contents, err := os.ReadFile(l.path)
	if err != nil {
		return errors.Wrap(err, "[Loader.Load] read catalog file")
	}

	snap, err := parseCatalog(contents)
	if err != nil {
		return errors.Wrap(err, "[Loader.Load] parse catalog")
	}

	totalApps := 0
	for _, data := range snap.byID {
		totalApps += len(data.Apps)
	}

	l.mu.Lock()
	l.current = snap
	l.mu.Unlock()

	log.Info().
		Str("path", l.path).
		Int("categories", len(snap.ordered)).
		Int("apps", totalApps).
		Msg("Catalog configuration loaded")
	return nil
}

// parseCatalog decodes the categories mapping while keeping document order.
func parseCatalog(contents []byte) (*snapshot, error) {
	var raw struct {
		Categories yaml.Node `yaml:"categories"`
	}
	if err := yaml.Unmarshal(contents, &raw); err != nil {
		return nil, errors.Wrap(err, "yaml unmarshal")
	}
	if raw.Categories.Kind == 0 {
		return nil, errors.New("categories section is required")
	}
	if raw.Categories.Kind != yaml.MappingNode {
		return nil, errors.New("categories must be a mapping")
	}

	snap := &snapshot{byID: make(map[string]CategoryData)}

	// A yaml mapping node stores keys and values interleaved.
	for i := 0; i+1 < len(raw.Categories.Content); i += 2 {
		id := raw.Categories.Content[i].Value

		var data CategoryData
		if err := raw.Categories.Content[i+1].Decode(&data); err != nil {
			return nil, errors.Wrapf(err, "category %q", id)
		}
		if err := validateCategory(id, data); err != nil {
			return nil, err
		}

		snap.ordered = append(snap.ordered, Category{
			ID:          id,
			Name:        data.Name,
			Icon:        data.Icon,
			Order:       data.Order,
			Description: data.Description,
		})
		snap.byID[id] = data
	}

	// Ascending by order; stable so equal keys keep document order.
	sort.SliceStable(snap.ordered, func(a, b int) bool {
		return snap.ordered[a].Order < snap.ordered[b].Order
	})

	return snap, nil
}

func validateCategory(id string, data CategoryData) error {
	if data.Name == "" {
		return errors.Errorf("category %q: name is required", id)
	}
	if data.Icon == "" {
		return errors.Errorf("category %q: icon is required", id)
	}
	for _, app := range data.Apps {
		if app.ID == "" || app.Name == "" || app.Description == "" || app.Icon == "" {
			return errors.Errorf("category %q: app %q: id, name, description and icon are required", id, app.ID)
		}
		parsed, err := url.ParseRequestURI(app.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return errors.Errorf("category %q: app %q: invalid url %q", id, app.ID, app.URL)
		}
	}
	return nil
}

// Categories returns the categories ascending by order.
func (l *Loader) Categories() []Category {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Category(nil), l.current.ordered...)
}

// CategoriesWithApps returns the id -> category data mapping.
func (l *Loader) CategoriesWithApps() map[string]CategoryData {
	l.mu.RLock()
	defer l.mu.RUnlock()

	byID := make(map[string]CategoryData, len(l.current.byID))
	for id, data := range l.current.byID {
		byID[id] = data
	}
	return byID
}

// StartWatching reloads the catalog when the file changes. The parent
// directory is watched because editors and config mounts replace the file
// rather than write it in place.
func (l *Loader) StartWatching() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "[Loader.StartWatching] fsnotify.NewWatcher")
	}
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		_ = watcher.Close()
		return errors.Wrap(err, "[Loader.StartWatching] watch catalog directory")
	}
	l.watcher = watcher

	log.Info().Str("path", l.path).Msg("Watching catalog configuration")

	go l.watchLoop()
	return nil
}

func (l *Loader) watchLoop() {
	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(l.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			l.scheduleReload()
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			log.Err(err).Msg("Catalog watcher error")
		case <-l.stopCh:
			return
		}
	}
}

func (l *Loader) scheduleReload() {
	l.debounceMu.Lock()
	defer l.debounceMu.Unlock()

	if l.debounceTimer != nil {
		l.debounceTimer.Stop()
	}
	l.debounceTimer = time.AfterFunc(debounceInterval, func() {
		log.Info().Str("path", l.path).Msg("Catalog configuration changed, reloading")
		if err := l.Load(); err != nil {
			log.Err(err).Msg("Failed to reload catalog, keeping previous configuration")
		}
	})
}

// Close stops the watcher.
func (l *Loader) Close() error {
	close(l.stopCh)

	l.debounceMu.Lock()
	if l.debounceTimer != nil {
		l.debounceTimer.Stop()
	}
	l.debounceMu.Unlock()

	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}
