package gudgeontop

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// ComponentPrefs are the UI choices remembered for one component
type ComponentPrefs struct {
	Group    string `toml:"group,omitempty"`
	Window   int    `toml:"window,omitempty"`
	Scope    string `toml:"scope,omitempty"`
	PageSize int    `toml:"page_size,omitempty"`
}

// PrefStore keeps per-component preferences in a TOML file keyed by component id.
// With an empty path preferences only live for the process.
type PrefStore struct {
	mu    sync.Mutex
	path  string
	prefs map[string]ComponentPrefs
}

// DefaultPrefsPath is $XDG_CONFIG_HOME/gudgeontop/prefs.toml or the platform equivalent
func DefaultPrefsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to find config dir: %w", err)
	}
	return filepath.Join(dir, "gudgeontop", "prefs.toml"), nil
}

// OpenPrefStore loads the store at path. A missing file is an empty store.
func OpenPrefStore(path string) (*PrefStore, error) {
	s := &PrefStore{path: path, prefs: make(map[string]ComponentPrefs)}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read prefs file '%s': %w", path, err)
	}
	if err := toml.Unmarshal(data, &s.prefs); err != nil {
		return nil, fmt.Errorf("failed to decode prefs file: %w", err)
	}
	return s, nil
}

// Path returns the backing file, "" when in memory
func (s *PrefStore) Path() string {
	return s.path
}

// Load returns the saved preferences for id
func (s *PrefStore) Load(id string) (ComponentPrefs, bool) {
	if s == nil {
		return ComponentPrefs{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prefs[id]
	return p, ok
}

// Save replaces the preferences for id and writes the file
func (s *PrefStore) Save(id string, p ComponentPrefs) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[id] = p
	return s.flush()
}

func (s *PrefStore) flush() error {
	if s.path == "" {
		return nil
	}
	data, err := toml.Marshal(s.prefs)
	if err != nil {
		return fmt.Errorf("failed to encode prefs: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create prefs dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write prefs file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace prefs file: %w", err)
	}
	return nil
}

// saveLogged is Save for unmount paths where nothing can act on the error
func (s *PrefStore) saveLogged(id string, p ComponentPrefs) {
	if err := s.Save(id, p); err != nil {
		log.Printf("prefs: %s: %v", id, err)
	}
}
