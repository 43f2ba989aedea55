package store

import (
	"context"
	"sync"

	"github.com/danieleon08/Taller3-Movil/internal/presence/domain"
)

// MemoryStore implements the store contract in memory. It backs tests and
// redis-less local runs.
type MemoryStore struct {
	mu      sync.Mutex
	users   map[string]domain.Record
	creds   map[string]domain.Credentials
	subs    map[*memSnapshotSub]struct{}
	recSubs map[*memRecordSub]struct{}
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]domain.Record),
		creds:   make(map[string]domain.Credentials),
		subs:    make(map[*memSnapshotSub]struct{}),
		recSubs: make(map[*memRecordSub]struct{}),
	}
}

// SaveUser stores the full record.
func (m *MemoryStore) SaveUser(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.UID] = user.Fields()
	m.broadcastLocked(user.UID)
	return nil
}

// WriteField updates one field, creating the record if needed.
func (m *MemoryStore) WriteField(_ context.Context, uid, field string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.users[uid]
	if !ok {
		rec = make(domain.Record)
		m.users[uid] = rec
	}
	rec[field] = value
	m.broadcastLocked(uid)
	return nil
}

// WritePosition updates both coordinates atomically.
func (m *MemoryStore) WritePosition(_ context.Context, uid string, point domain.GeoPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.users[uid]
	if !ok {
		rec = make(domain.Record)
		m.users[uid] = rec
	}
	rec[domain.FieldLatitude] = point.Lat
	rec[domain.FieldLongitude] = point.Lng
	m.broadcastLocked(uid)
	return nil
}

// Read returns a copy of one record.
func (m *MemoryStore) Read(_ context.Context, uid string) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.users[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneRecord(rec), nil
}

// ReadAll returns a copy of the full state.
func (m *MemoryStore) ReadAll(_ context.Context) (domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(), nil
}

// Subscribe registers a snapshot subscriber and delivers the current state.
func (m *MemoryStore) Subscribe(_ context.Context) (domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := &memSnapshotSub{out: make(chan domain.Snapshot, 1), store: m}
	m.subs[sub] = struct{}{}
	deliver(sub.out, m.snapshotLocked())
	return sub, nil
}

// SubscribeRecord registers a single-record subscriber.
func (m *MemoryStore) SubscribeRecord(_ context.Context, uid string) (domain.RecordSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := &memRecordSub{out: make(chan domain.Record, 1), store: m, uid: uid}
	m.recSubs[sub] = struct{}{}
	if rec, ok := m.users[uid]; ok {
		deliver(sub.out, cloneRecord(rec))
	}
	return sub, nil
}

// SaveCredentials registers credentials, rejecting duplicate emails.
func (m *MemoryStore) SaveCredentials(_ context.Context, creds domain.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.creds[creds.Email]; exists {
		return domain.ErrEmailTaken
	}
	m.creds[creds.Email] = creds
	return nil
}

// LookupCredentials fetches credentials by email.
func (m *MemoryStore) LookupCredentials(_ context.Context, email string) (domain.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	creds, ok := m.creds[email]
	if !ok {
		return domain.Credentials{}, domain.ErrNotFound
	}
	return creds, nil
}

func (m *MemoryStore) snapshotLocked() domain.Snapshot {
	snap := make(domain.Snapshot, len(m.users))
	for uid, rec := range m.users {
		snap[uid] = cloneRecord(rec)
	}
	return snap
}

func (m *MemoryStore) broadcastLocked(uid string) {
	if len(m.subs) > 0 {
		snap := m.snapshotLocked()
		for sub := range m.subs {
			deliver(sub.out, snap)
		}
	}
	if rec, ok := m.users[uid]; ok {
		for sub := range m.recSubs {
			if sub.uid == uid {
				deliver(sub.out, cloneRecord(rec))
			}
		}
	}
}

func cloneRecord(rec domain.Record) domain.Record {
	out := make(domain.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

type memSnapshotSub struct {
	out   chan domain.Snapshot
	store *MemoryStore
	once  sync.Once
}

func (s *memSnapshotSub) Snapshots() <-chan domain.Snapshot { return s.out }

func (s *memSnapshotSub) Stop() {
	s.once.Do(func() {
		s.store.mu.Lock()
		delete(s.store.subs, s)
		s.store.mu.Unlock()
		close(s.out)
	})
}

type memRecordSub struct {
	out   chan domain.Record
	store *MemoryStore
	uid   string
	once  sync.Once
}

func (s *memRecordSub) Records() <-chan domain.Record { return s.out }

func (s *memRecordSub) Stop() {
	s.once.Do(func() {
		s.store.mu.Lock()
		delete(s.store.recSubs, s)
		s.store.mu.Unlock()
		close(s.out)
	})
}
