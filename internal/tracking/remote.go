package tracking

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/danieleon08/Taller3-Movil/internal/presence/domain"
)

// RemoteWatcher follows exactly one user's record and forwards position
// changes to a tracker. Updates missing either coordinate are ignored
// silently, no redraw and no error.
type RemoteWatcher struct {
	store   domain.Store
	tracker *Tracker
	uid     string
	logger  *zap.Logger

	mu   sync.Mutex
	sub  domain.RecordSubscription
	done chan struct{}
}

// NewRemoteWatcher constructs a watcher for the remote user's record.
func NewRemoteWatcher(store domain.Store, tracker *Tracker, uid string, logger *zap.Logger) *RemoteWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteWatcher{store: store, tracker: tracker, uid: uid, logger: logger}
}

// Start subscribes to the remote record.
func (w *RemoteWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sub != nil {
		return errors.New("remote watcher already started")
	}
	sub, err := w.store.SubscribeRecord(ctx, w.uid)
	if err != nil {
		return err
	}
	w.sub = sub
	w.done = make(chan struct{})
	go w.run(sub, w.done)
	return nil
}

// Stop detaches from the store.
func (w *RemoteWatcher) Stop() {
	w.mu.Lock()
	sub, done := w.sub, w.done
	w.sub, w.done = nil, nil
	w.mu.Unlock()
	if sub == nil {
		return
	}
	sub.Stop()
	<-done
}

func (w *RemoteWatcher) run(sub domain.RecordSubscription, done chan struct{}) {
	defer close(done)
	for rec := range sub.Records() {
		lat, okLat := rec.Float(domain.FieldLatitude)
		lng, okLng := rec.Float(domain.FieldLongitude)
		if !okLat || !okLng {
			continue
		}
		w.tracker.SetRemote(domain.GeoPoint{Lat: lat, Lng: lng})
	}
}
