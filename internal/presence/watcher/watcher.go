package watcher

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/danieleon08/Taller3-Movil/internal/presence/domain"
)

// Watcher diffs each incoming snapshot against the last observed status per
// user and notifies when someone flips from Desconectado to Disponible.
//
// The first snapshot a subscription delivers carries the current state, so it
// only seeds the status map: a user first seen as Disponible never fires.
// Only observed transitions do.
type Watcher struct {
	store    domain.Store
	notifier domain.Notifier
	logger   *zap.Logger

	mu   sync.Mutex
	last map[string]domain.Status
	sub  domain.Subscription
	done chan struct{}
}

// New constructs a watcher. The status map is owned by this instance alone;
// there is no process-wide state.
func New(store domain.Store, notifier domain.Notifier, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		store:    store,
		notifier: notifier,
		logger:   logger,
		last:     make(map[string]domain.Status),
	}
}

// Start subscribes to the store and processes snapshots until Stop. Snapshots
// are handled strictly one at a time; every transition found in a snapshot is
// emitted before the next one is read.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sub != nil {
		return errors.New("watcher already started")
	}
	sub, err := w.store.Subscribe(ctx)
	if err != nil {
		return err
	}
	w.sub = sub
	w.done = make(chan struct{})
	go w.run(ctx, sub, w.done)
	return nil
}

// Stop detaches from the store. No event is emitted afterwards.
func (w *Watcher) Stop() {
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

func (w *Watcher) run(ctx context.Context, sub domain.Subscription, done chan struct{}) {
	defer close(done)
	for snap := range sub.Snapshots() {
		w.OnSnapshot(ctx, snap)
	}
}

// OnSnapshot diffs one full snapshot. Records are processed independently and
// in no particular order; a malformed record never aborts the pass.
func (w *Watcher) OnSnapshot(ctx context.Context, snap domain.Snapshot) {
	snapshotsTotal.Inc()
	for uid, rec := range snap {
		status, ok := rec.Status()
		if !ok {
			continue
		}
		if w.last[uid] == domain.StatusDisconnected && status == domain.StatusAvailable {
			event, ok := eventFromRecord(uid, rec)
			if !ok {
				// Required fields missing: skip without advancing the
				// saved status, so the transition still fires once the
				// record is complete.
				skippedRecordsTotal.Inc()
				continue
			}
			w.notifier.Notify(ctx, event)
			transitionsTotal.Inc()
			w.logger.Info("user became available",
				zap.String("uid", uid),
				zap.String("nombre", event.FirstName),
			)
		}
		w.last[uid] = status
	}
}

func eventFromRecord(uid string, rec domain.Record) (domain.BecameAvailable, bool) {
	firstName, ok := rec.String(domain.FieldFirstName)
	if !ok {
		return domain.BecameAvailable{}, false
	}
	lastName, _ := rec.String(domain.FieldLastName)
	lat, ok := rec.Float(domain.FieldLatitude)
	if !ok {
		return domain.BecameAvailable{}, false
	}
	lng, ok := rec.Float(domain.FieldLongitude)
	if !ok {
		return domain.BecameAvailable{}, false
	}
	return domain.BecameAvailable{
		UserID:    uid,
		FirstName: firstName,
		LastName:  lastName,
		Position:  domain.GeoPoint{Lat: lat, Lng: lng},
	}, true
}
