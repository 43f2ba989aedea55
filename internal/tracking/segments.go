package tracking

import (
	"sync"
	"time"

	"github.com/danieleon08/Taller3-Movil/internal/presence/domain"
)

// Segment is the latest drawn line for a user: local position to tracked
// remote position, with its great-circle length.
type Segment struct {
	UID          string          `json:"uid"`
	From         domain.GeoPoint `json:"origen"`
	To           domain.GeoPoint `json:"destino"`
	LengthMeters float64         `json:"longitud_metros"`
	Updated      time.Time       `json:"actualizado"`
}

// SegmentBoard is a Renderer keeping the latest segment per user, backing the
// route REST surface the same way a map view keeps one polyline alive.
type SegmentBoard struct {
	mu       sync.RWMutex
	segments map[string]Segment
}

// NewSegmentBoard constructs an empty board.
func NewSegmentBoard() *SegmentBoard {
	return &SegmentBoard{segments: make(map[string]Segment)}
}

// DrawLine replaces the user's segment.
func (b *SegmentBoard) DrawLine(uid string, from, to domain.GeoPoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.segments[uid] = Segment{
		UID:          uid,
		From:         from,
		To:           to,
		LengthMeters: Haversine(from, to),
		Updated:      time.Now().UTC(),
	}
}

// Segment returns the stored segment for a user.
func (b *SegmentBoard) Segment(uid string) (Segment, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	seg, ok := b.segments[uid]
	return seg, ok
}

// All returns every stored segment.
func (b *SegmentBoard) All() []Segment {
	b.mu.RLock()
	defer b.mu.RUnlock()
	res := make([]Segment, 0, len(b.segments))
	for _, seg := range b.segments {
		res = append(res, seg)
	}
	return res
}
