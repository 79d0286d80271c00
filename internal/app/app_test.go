package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bassista/go_quill/internal/ai"
	"github.com/bassista/go_quill/internal/config"
	"github.com/bassista/go_quill/internal/repository"
	"github.com/bassista/go_quill/internal/settings"
	"github.com/stretchr/testify/mock"
)

// mockRepository implements settings.Repository for testing
type mockRepository struct {
	mu             sync.Mutex
	watcherStarted bool
	watcherErr     error
	saves          int
	doc            settings.Document
}

func (m *mockRepository) Load(ctx context.Context) (*settings.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := m.doc
	return &doc, nil
}

func (m *mockRepository) Save(ctx context.Context, doc *settings.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if doc != nil {
		m.doc = *doc
	}
	return nil
}

func (m *mockRepository) StartWatcher(ctx context.Context, store settings.CacheStore) error {
	if m.watcherErr != nil {
		return m.watcherErr
	}
	m.watcherStarted = true
	return nil
}

// mockedRepository records calls with testify's mock package.
type mockedRepository struct {
	mock.Mock
}

func (m *mockedRepository) Load(ctx context.Context) (*settings.Document, error) {
	args := m.Called(ctx)
	doc, _ := args.Get(0).(*settings.Document)
	return doc, args.Error(1)
}

func (m *mockedRepository) Save(ctx context.Context, doc *settings.Document) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *mockedRepository) StartWatcher(ctx context.Context, store settings.CacheStore) error {
	return m.Called(ctx, store).Error(0)
}

func testConfig() *config.Config {
	return &config.Config{Data: config.DataConfig{PersistInterval: time.Hour}}
}

func openDB(t *testing.T) *repository.DB {
	t.Helper()
	db, err := repository.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db
}

func TestNew_Validation(t *testing.T) {
	db := openDB(t)
	defer db.Close()
	repo := &mockRepository{}
	store := settings.NewStore(settings.Document{})

	tests := []struct {
		name string
		fn   func() (*App, error)
	}{
		{"nil config", func() (*App, error) { return New(nil, db, repo, store, nil) }},
		{"nil db", func() (*App, error) { return New(testConfig(), nil, repo, store, nil) }},
		{"nil repo", func() (*App, error) { return New(testConfig(), db, nil, store, nil) }},
		{"nil store", func() (*App, error) { return New(testConfig(), db, repo, nil, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.fn(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNew_DefaultsToNoopAI(t *testing.T) {
	db := openDB(t)
	a, err := New(testConfig(), db, &mockRepository{}, settings.NewStore(settings.Document{}), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Shutdown()

	if _, ok := a.AI.(ai.Noop); !ok {
		t.Errorf("expected Noop suggester, got %T", a.AI)
	}
	if a.BaseCtx == nil || a.Cancel == nil {
		t.Error("expected lifecycle context")
	}
}

func TestStartWatchers_PropagatesWatcherError(t *testing.T) {
	db := openDB(t)
	repo := &mockRepository{watcherErr: errors.New("no inotify")}
	a, _ := New(testConfig(), db, repo, settings.NewStore(settings.Document{}), nil)
	defer a.Shutdown()

	if err := a.StartWatchers(); err == nil {
		t.Error("expected watcher error")
	}
}

func TestShutdown_FlushesDirtySettings(t *testing.T) {
	db := openDB(t)
	repo := &mockRepository{}
	store := settings.NewStore(settings.Document{})
	a, _ := New(testConfig(), db, repo, store, nil)

	if err := a.StartWatchers(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.watcherStarted {
		t.Error("expected watcher to be started")
	}
	if _, err := store.UpsertSetting(settings.Setting{Key: "site_title", Value: []byte(`"Quill"`)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a.Shutdown()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.saves != 1 {
		t.Errorf("expected final flush on shutdown, got %d saves", repo.saves)
	}
	if len(repo.doc.Settings) != 1 {
		t.Errorf("expected flushed setting, got %+v", repo.doc.Settings)
	}
	if store.IsDirty() {
		t.Error("expected store to be clean after flush")
	}
}

func TestShutdown_NilSafe(t *testing.T) {
	var a *App
	a.Shutdown()
}

func TestStartWatchers_WiresStoreIntoRepository(t *testing.T) {
	db := openDB(t)
	store := settings.NewStore(settings.Document{})
	repo := &mockedRepository{}
	repo.On("StartWatcher", mock.Anything, store).Return(nil).Once()
	repo.On("Save", mock.Anything, mock.AnythingOfType("*settings.Document")).Return(nil).Once()

	a, err := New(testConfig(), db, repo, store, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.StartWatchers(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.MarkDirty()
	a.Shutdown()

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Load", mock.Anything)
}
