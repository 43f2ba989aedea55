package tracking

import (
	"sync"

	"go.uber.org/zap"

	"github.com/danieleon08/Taller3-Movil/internal/presence/domain"
)

// Hub hands out one tracker per user, created lazily on first use. The
// threshold state ("last accepted fix") lives in the tracker, so every stream
// from the same user shares a single comparison basis.
type Hub struct {
	store    domain.Store
	renderer Renderer
	logger   *zap.Logger
	cfg      Config

	mu       sync.Mutex
	trackers map[string]*Tracker
}

// NewHub constructs the hub.
func NewHub(store domain.Store, renderer Renderer, logger *zap.Logger, cfg Config) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		store:    store,
		renderer: renderer,
		logger:   logger,
		cfg:      cfg,
		trackers: make(map[string]*Tracker),
	}
}

// Tracker returns the user's tracker, creating it on first use.
func (h *Hub) Tracker(uid string) *Tracker {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.trackers[uid]; ok {
		return t
	}
	t := NewTracker(uid, h.store, h.renderer, h.logger.Named("tracker"), h.cfg)
	h.trackers[uid] = t
	return t
}
