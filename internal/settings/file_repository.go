package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bassista/go_quill/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
)

const reloadDebounce = 200 * time.Millisecond

// FileRepository handles disk persistence and watching of the settings file.
type FileRepository struct {
	path      string
	dir       string
	base      string
	validator *validator.Validate
	mu        sync.Mutex
}

// NewFileRepository creates a repository for the given JSON file path.
func NewFileRepository(path string) (*FileRepository, error) {
	if path == "" {
		return nil, errors.New("settings file path is required")
	}

	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}
	return &FileRepository{path: path, dir: dir, base: filepath.Base(path), validator: validator.New()}, nil
}

// Load reads the JSON file, parses and validates it.
func (r *FileRepository) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open settings file: %w", err)
	}
	defer file.Close()

	var doc Document
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode settings file: %w", err)
	}
	doc.ApplyDefaults()

	if err := r.validator.Struct(&doc); err != nil {
		return nil, fmt.Errorf("validate settings file: %w", err)
	}
	return &doc, nil
}

// Save validates and writes the document atomically (temp file + rename).
func (r *FileRepository) Save(ctx context.Context, doc *Document) error {
	if doc == nil {
		return errors.New("document is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.validator.Struct(doc); err != nil {
		return fmt.Errorf("validate before save: %w", err)
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tmpFile, err := os.CreateTemp(r.dir, r.base+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.Write(payload); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), r.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

// StartWatcher reloads the settings file into cacheStore when it changes on
// disk. The parent directory is watched so atomic replaces are observed, and
// bursts of events collapse into one reload. Cancel ctx to stop watching.
func (r *FileRepository) StartWatcher(ctx context.Context, cacheStore CacheStore) error {
	if cacheStore == nil {
		return errors.New("cache store is required")
	}
	onChange := r.watcherCallback(ctx, cacheStore)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir: %w", err)
	}

	log := logger.WithComponent("settings")
	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()
		schedule := func() {
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, onChange)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != r.base {
					continue
				}
				// Remove/Rename precede the Create of an atomic replace.
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod|fsnotify.Remove|fsnotify.Rename) != 0 {
					schedule()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("watcher error: %v", err)
			}
		}
	}()

	return nil
}

// watcherCallback reloads the cache from disk when the file is newer and the
// cache holds no unsaved changes.
func (r *FileRepository) watcherCallback(ctx context.Context, cacheStore CacheStore) func() {
	log := logger.WithComponent("settings")
	return func() {
		if ctx.Err() != nil {
			return
		}
		diskDoc, err := r.Load(ctx)
		if err != nil {
			log.Warnf("watch reload failed: %v", err)
			return
		}
		cacheLastUpdate := cacheStore.GetLastUpdate()
		diskLastUpdate := diskDoc.Metadata.LastUpdate

		if diskLastUpdate < cacheLastUpdate {
			log.Debugf("disk version is older than cache: disk=%d cache=%d", diskLastUpdate, cacheLastUpdate)
			return
		}

		if cacheStore.IsDirty() {
			// The next flush overwrites the file anyway.
			log.Warn("disk settings are newer but cache is dirty; skipping reload")
			return
		}

		if diskLastUpdate == cacheLastUpdate {
			snapshot, err := cacheStore.Snapshot()
			if err != nil {
				log.Errorf("cache reload error: failed to get snapshot: %v", err)
				return
			}
			if AreDocumentsEqual(&snapshot, diskDoc) {
				return
			}
		}
		if err := cacheStore.Replace(*diskDoc); err != nil {
			log.Errorf("cache reload error: %v", err)
			return
		}
		log.Info("settings reloaded from newer disk version")
	}
}
