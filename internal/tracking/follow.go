package tracking

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/danieleon08/Taller3-Movil/internal/presence/domain"
)

// Registry binds users to the remote user they are tracking. Each user has at
// most one active remote watcher; following someone new replaces the old one.
type Registry struct {
	store  domain.Store
	hub    *Hub
	logger *zap.Logger

	mu       sync.Mutex
	watchers map[string]*RemoteWatcher
}

// NewRegistry constructs the registry.
func NewRegistry(store domain.Store, hub *Hub, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		store:    store,
		hub:      hub,
		logger:   logger,
		watchers: make(map[string]*RemoteWatcher),
	}
}

// Follow points uid's tracker at targetUID's live position.
func (r *Registry) Follow(ctx context.Context, uid, targetUID string) error {
	watcher := NewRemoteWatcher(r.store, r.hub.Tracker(uid), targetUID, r.logger.Named("remote"))
	if err := watcher.Start(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	previous := r.watchers[uid]
	r.watchers[uid] = watcher
	r.mu.Unlock()

	if previous != nil {
		previous.Stop()
	}
	r.logger.Info("tracking started", zap.String("uid", uid), zap.String("objetivo", targetUID))
	return nil
}

// Unfollow stops uid's remote watcher, if any.
func (r *Registry) Unfollow(uid string) {
	r.mu.Lock()
	watcher := r.watchers[uid]
	delete(r.watchers, uid)
	r.mu.Unlock()
	if watcher != nil {
		watcher.Stop()
	}
}

// StopAll detaches every watcher, used at shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	watchers := make([]*RemoteWatcher, 0, len(r.watchers))
	for _, w := range r.watchers {
		watchers = append(watchers, w)
	}
	r.watchers = make(map[string]*RemoteWatcher)
	r.mu.Unlock()
	for _, w := range watchers {
		w.Stop()
	}
}
