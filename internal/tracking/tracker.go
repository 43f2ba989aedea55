package tracking

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/danieleon08/Taller3-Movil/internal/presence/domain"
)

// DefaultThresholdMeters is the movement threshold a fix must clear, measured
// from the last accepted fix, before it is written and rendered. It bounds
// store write frequency and rendering churn.
const DefaultThresholdMeters = 30.0

// Renderer draws the line between the local and the tracked remote position.
type Renderer interface {
	DrawLine(uid string, from, to domain.GeoPoint)
}

// Config tunes a tracker. Zero fields take defaults.
type Config struct {
	ThresholdMeters float64
}

// Tracker owns one user's live position. Each fix is compared against the
// last ACCEPTED fix, not the last received one: sub-threshold fixes leave the
// comparison basis untouched.
type Tracker struct {
	uid      string
	store    domain.Store
	renderer Renderer
	logger   *zap.Logger
	cfg      Config

	mu     sync.Mutex
	last   *domain.GeoPoint
	remote *domain.GeoPoint
}

// NewTracker constructs a tracker for the given user.
func NewTracker(uid string, store domain.Store, renderer Renderer, logger *zap.Logger, cfg Config) *Tracker {
	if cfg.ThresholdMeters <= 0 {
		cfg.ThresholdMeters = DefaultThresholdMeters
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{uid: uid, store: store, renderer: renderer, logger: logger, cfg: cfg}
}

// OnFix applies the threshold policy to one fix. The first fix is always
// accepted; later ones only when they moved at least the threshold distance
// from the last accepted fix. An accepted fix is written to the user's record
// and, when a remote position is known, the connecting line is redrawn.
func (t *Tracker) OnFix(ctx context.Context, fix domain.Fix) (bool, error) {
	point := domain.GeoPoint{Lat: fix.Lat, Lng: fix.Lng}

	t.mu.Lock()
	if t.last != nil && Haversine(point, *t.last) < t.cfg.ThresholdMeters {
		t.mu.Unlock()
		fixesTotal.WithLabelValues("discarded").Inc()
		return false, nil
	}
	t.last = &point
	remote := t.remote
	t.mu.Unlock()

	fixesTotal.WithLabelValues("accepted").Inc()
	if err := t.store.WritePosition(ctx, t.uid, point); err != nil {
		return true, fmt.Errorf("write position: %w", err)
	}
	if remote != nil {
		t.draw(point, *remote)
	}
	return true, nil
}

// SetRemote updates the tracked remote position and redraws against the last
// accepted local fix, if any.
func (t *Tracker) SetRemote(point domain.GeoPoint) {
	t.mu.Lock()
	t.remote = &point
	local := t.last
	t.mu.Unlock()

	if local != nil {
		t.draw(*local, point)
	}
}

// Remote returns the currently tracked remote position.
func (t *Tracker) Remote() (domain.GeoPoint, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.remote == nil {
		return domain.GeoPoint{}, false
	}
	return *t.remote, true
}

// LastAccepted returns the last accepted local fix.
func (t *Tracker) LastAccepted() (domain.GeoPoint, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return domain.GeoPoint{}, false
	}
	return *t.last, true
}

// Run consumes fixes from the source until it stops or the context ends.
func (t *Tracker) Run(ctx context.Context, source domain.FixSource) {
	for {
		select {
		case <-ctx.Done():
			return
		case fix, ok := <-source.Fixes():
			if !ok {
				return
			}
			if _, err := t.OnFix(ctx, fix); err != nil {
				t.logger.Warn("fix handling failed", zap.String("uid", t.uid), zap.Error(err))
			}
		}
	}
}

func (t *Tracker) draw(from, to domain.GeoPoint) {
	t.renderer.DrawLine(t.uid, from, to)
	redrawsTotal.Inc()
}
