package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSettingNotFound  = errors.New("setting not found")
	ErrShortcutNotFound = errors.New("shortcut not found")
	ErrShortcutExists   = errors.New("shortcut already exists")
)

// Well-known setting keys read by the HTTP middleware.
const (
	KeyMaintenance = "maintenance_mode"
	KeyComments    = "comments_enabled"
)

const defaultMaintenanceMessage = "The site is under maintenance. Please come back later."

// Maintenance is the decoded maintenance_mode setting.
type Maintenance struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}

// Store keeps an in-memory copy of the settings document.
type Store struct {
	mu         sync.RWMutex
	data       Document
	dirty      bool  // true if cache changed since last persist
	lastUpdate int64 // cache's metadata.lastUpdate
	now        func() time.Time
}

// NewStore creates a store seeded with doc.
func NewStore(doc Document) *Store {
	doc.ApplyDefaults()
	return &Store{data: doc, lastUpdate: doc.Metadata.LastUpdate, now: time.Now}
}

// MarkDirty sets the dirty flag to true.
func (s *Store) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
}

// IsDirty returns true if cache has uncommitted changes.
func (s *Store) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// ClearDirty resets the dirty flag.
func (s *Store) ClearDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// GetLastUpdate returns the cache's last update timestamp.
func (s *Store) GetLastUpdate() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// SetLastUpdate sets the cache's last update timestamp.
func (s *Store) SetLastUpdate(ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUpdate = ts
}

// Snapshot returns a deep copy of the cached data.
func (s *Store) Snapshot() (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.data)
}

// Replace swaps the cached data and clears the dirty flag.
func (s *Store) Replace(doc Document) error {
	cloned, err := clone(doc)
	if err != nil {
		return err
	}
	cloned.ApplyDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = cloned
	s.lastUpdate = doc.Metadata.LastUpdate
	s.dirty = false
	return nil
}

// Setting returns a copy of the setting stored under key.
func (s *Store) Setting(key string) (Setting, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.settingIndex(key)
	if i < 0 {
		return Setting{}, false
	}
	out, err := clone(s.data.Settings[i])
	if err != nil {
		return Setting{}, false
	}
	return out, true
}

// UpsertSetting inserts or replaces the setting with the same key.
func (s *Store) UpsertSetting(setting Setting) (Setting, error) {
	cloned, err := clone(setting)
	if err != nil {
		return Setting{}, err
	}
	cloned.applyDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()

	cloned.UpdatedAt = s.now().UnixMilli()
	if i := s.settingIndex(cloned.Key); i >= 0 {
		s.data.Settings[i] = cloned
	} else {
		s.data.Settings = append(s.data.Settings, cloned)
	}
	s.dirty = true
	return clone(cloned)
}

// RemoveSetting deletes the setting stored under key.
func (s *Store) RemoveSetting(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.settingIndex(key)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}
	s.data.Settings = append(s.data.Settings[:i], s.data.Settings[i+1:]...)
	s.dirty = true
	return nil
}

// Shortcuts returns the shortcuts ordered by Order, then title.
func (s *Store) Shortcuts() []Shortcut {
	s.mu.RLock()
	out, err := clone(s.data.Shortcuts)
	s.mu.RUnlock()
	if err != nil || out == nil {
		return []Shortcut{}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// AddShortcut stores a new shortcut, assigning an id when it has none.
func (s *Store) AddShortcut(shortcut Shortcut) (Shortcut, error) {
	cloned, err := clone(shortcut)
	if err != nil {
		return Shortcut{}, err
	}
	if cloned.ID == "" {
		cloned.ID = uuid.NewString()
	}
	cloned.applyDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shortcutIndex(cloned.ID) >= 0 {
		return Shortcut{}, fmt.Errorf("%w: %s", ErrShortcutExists, cloned.ID)
	}
	s.data.Shortcuts = append(s.data.Shortcuts, cloned)
	s.dirty = true
	return clone(cloned)
}

// UpdateShortcut applies patch to the shortcut with the given id.
func (s *Store) UpdateShortcut(id string, patch ShortcutPatch) (Shortcut, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.shortcutIndex(id)
	if i < 0 {
		return Shortcut{}, fmt.Errorf("%w: %s", ErrShortcutNotFound, id)
	}
	s.data.Shortcuts[i] = patch.apply(s.data.Shortcuts[i])
	s.dirty = true
	return clone(s.data.Shortcuts[i])
}

// RemoveShortcut deletes the shortcut with the given id.
func (s *Store) RemoveShortcut(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.shortcutIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrShortcutNotFound, id)
	}
	s.data.Shortcuts = append(s.data.Shortcuts[:i], s.data.Shortcuts[i+1:]...)
	s.dirty = true
	return nil
}

// Maintenance decodes the maintenance_mode setting. The value may be a bare
// boolean or an object with enabled and message. Inactive or missing settings
// mean the site is open.
func (s *Store) Maintenance() Maintenance {
	setting, ok := s.Setting(KeyMaintenance)
	if !ok || setting.IsActive == nil || !*setting.IsActive {
		return Maintenance{}
	}
	var m Maintenance
	var enabled bool
	if err := json.Unmarshal(setting.Value, &enabled); err == nil {
		m.Enabled = enabled
	} else if err := json.Unmarshal(setting.Value, &m); err != nil {
		return Maintenance{}
	}
	if m.Enabled && m.Message == "" {
		m.Message = defaultMaintenanceMessage
	}
	return m
}

// CommentsEnabled reports whether new comments are accepted. Defaults to true.
func (s *Store) CommentsEnabled() bool {
	setting, ok := s.Setting(KeyComments)
	if !ok || setting.IsActive == nil || !*setting.IsActive {
		return true
	}
	var enabled bool
	if err := json.Unmarshal(setting.Value, &enabled); err != nil {
		return true
	}
	return enabled
}

func (s *Store) settingIndex(key string) int {
	for i := range s.data.Settings {
		if s.data.Settings[i].Key == key {
			return i
		}
	}
	return -1
}

func (s *Store) shortcutIndex(id string) int {
	for i := range s.data.Shortcuts {
		if s.data.Shortcuts[i].ID == id {
			return i
		}
	}
	return -1
}

// clone deep-copies v through JSON to avoid shared slices and pointers
// between the cache and its callers.
func clone[T any](v T) (T, error) {
	var out T
	bytes, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(bytes, &out); err != nil {
		return out, err
	}
	return out, nil
}
