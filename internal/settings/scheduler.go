package settings

import (
	"context"
	"time"

	"github.com/bassista/go_quill/internal/logger"
)

// StartPersistenceScheduler periodically flushes the dirty store to repo.
// On ctx.Done it performs a final flush before returning. The returned
// channel is closed once the scheduler has stopped.
func StartPersistenceScheduler(
	ctx context.Context,
	store PersistableStore,
	repo Saver,
	interval time.Duration,
) <-chan struct{} {
	done := make(chan struct{})
	log := logger.WithComponent("persist")
	log.Debugf("starting persistence scheduler with interval: %v", interval)
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				// Final flush must not inherit the cancelled context.
				flush(context.WithoutCancel(ctx), store, repo, time.Now)
				log.Info("persistence scheduler stopped after final flush")
				return
			case <-ticker.C:
				flush(ctx, store, repo, time.Now)
			}
		}
	}()
	return done
}

// flush persists the store if dirty and stamps the new lastUpdate.
func flush(ctx context.Context, store PersistableStore, repo Saver, now func() time.Time) bool {
	log := logger.WithComponent("persist")
	if !store.IsDirty() {
		log.Tracef("settings clean, skipping flush")
		return false
	}
	if err := ctx.Err(); err != nil {
		log.Debugf("flush cancelled: %v", err)
		return false
	}

	snapshot, err := store.Snapshot()
	if err != nil {
		log.Errorf("persist error: failed to get snapshot: %v", err)
		return false
	}
	snapshot.Metadata.LastUpdate = now().UnixMilli()

	if err := repo.Save(ctx, &snapshot); err != nil {
		log.Errorf("persist error: failed to save: %v", err)
		return false
	}

	store.ClearDirty()
	store.SetLastUpdate(snapshot.Metadata.LastUpdate)
	log.Debug("settings persisted to disk")
	return true
}
