package settings

import "context"

// Saver persists a Document.
// Small interface used by background jobs like the persistence scheduler.
type Saver interface {
	Save(ctx context.Context, doc *Document) error
}

// Repository abstracts persistence and watching of the settings file.
// FileRepository implements this interface.
type Repository interface {
	Saver
	Load(ctx context.Context) (*Document, error)
	StartWatcher(ctx context.Context, cacheStore CacheStore) error
}

// CacheStore is what the file watcher needs to reload newer documents.
type CacheStore interface {
	GetLastUpdate() int64
	IsDirty() bool
	Snapshot() (Document, error)
	Replace(doc Document) error
}

// ReadOnlyStore is the minimal cache API for read-only consumers.
type ReadOnlyStore interface {
	Snapshot() (Document, error)
	Maintenance() Maintenance
	CommentsEnabled() bool
}

// SettingStore is the cache API needed by setting handlers.
type SettingStore interface {
	ReadOnlyStore
	Setting(key string) (Setting, bool)
	UpsertSetting(setting Setting) (Setting, error)
	RemoveSetting(key string) error
}

// ShortcutStore is the cache API needed by shortcut handlers.
type ShortcutStore interface {
	ReadOnlyStore
	Shortcuts() []Shortcut
	AddShortcut(shortcut Shortcut) (Shortcut, error)
	UpdateShortcut(id string, patch ShortcutPatch) (Shortcut, error)
	RemoveShortcut(id string) error
}

// PersistableStore is the cache API needed by the persistence scheduler.
type PersistableStore interface {
	IsDirty() bool
	Snapshot() (Document, error)
	ClearDirty()
	SetLastUpdate(ts int64)
}

// AppStore is the cache contract the application container exposes.
type AppStore interface {
	CacheStore
	SettingStore
	ShortcutStore
	PersistableStore
}

var _ AppStore = (*Store)(nil)
