package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/danieleon08/Taller3-Movil/internal/presence/domain"
)

const (
	userKeyPrefix  = "usuarios:"
	userSetKey     = "usuarios"
	changesChannel = "usuarios:cambios"
	credsKeyPrefix = "credenciales:"
)

// RedisStore persists one hash per user and fans out change notices over
// pub/sub. Subscribers re-read the full state on every notice, so each
// delivery is a complete snapshot, mirroring the push contract clients
// already depend on.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore constructs the store.
func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, logger: logger}
}

// SaveUser writes the full record and announces the change.
func (s *RedisStore) SaveUser(ctx context.Context, user domain.User) error {
	fields := make(map[string]any, 8)
	for k, v := range user.Fields() {
		fields[k] = v
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, userKey(user.UID), fields)
	pipe.SAdd(ctx, userSetKey, user.UID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save user: %w", err)
	}
	return s.publish(ctx, user.UID)
}

// WriteField updates a single field of the user's record.
func (s *RedisStore) WriteField(ctx context.Context, uid, field string, value any) error {
	if err := s.client.HSet(ctx, userKey(uid), field, value).Err(); err != nil {
		return fmt.Errorf("redis write field %s: %w", field, err)
	}
	return s.publish(ctx, uid)
}

// WritePosition updates both coordinates with a single change notice so
// subscribers never observe a half-written position.
func (s *RedisStore) WritePosition(ctx context.Context, uid string, point domain.GeoPoint) error {
	err := s.client.HSet(ctx, userKey(uid),
		domain.FieldLatitude, point.Lat,
		domain.FieldLongitude, point.Lng,
	).Err()
	if err != nil {
		return fmt.Errorf("redis write position: %w", err)
	}
	return s.publish(ctx, uid)
}

// Read returns a single user's record.
func (s *RedisStore) Read(ctx context.Context, uid string) (domain.Record, error) {
	values, err := s.client.HGetAll(ctx, userKey(uid)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read user: %w", err)
	}
	if len(values) == 0 {
		return nil, domain.ErrNotFound
	}
	return recordFromHash(values), nil
}

// ReadAll returns the full current snapshot.
func (s *RedisStore) ReadAll(ctx context.Context) (domain.Snapshot, error) {
	uids, err := s.client.SMembers(ctx, userSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list users: %w", err)
	}
	snap := make(domain.Snapshot, len(uids))
	if len(uids) == 0 {
		return snap, nil
	}
	pipe := s.client.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(uids))
	for _, uid := range uids {
		cmds[uid] = pipe.HGetAll(ctx, userKey(uid))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis read snapshot: %w", err)
	}
	for uid, cmd := range cmds {
		values, err := cmd.Result()
		if err != nil || len(values) == 0 {
			continue
		}
		snap[uid] = recordFromHash(values)
	}
	return snap, nil
}

// Subscribe delivers the current snapshot immediately, then a fresh one after
// every mutation. A slow consumer is coalesced to the latest snapshot.
func (s *RedisStore) Subscribe(ctx context.Context) (domain.Subscription, error) {
	pubsub := s.client.Subscribe(ctx, changesChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}
	sub := &snapshotSub{out: make(chan domain.Snapshot, 1), pubsub: pubsub}
	go sub.run(ctx, s)
	return sub, nil
}

// SubscribeRecord follows a single user's record by uid.
func (s *RedisStore) SubscribeRecord(ctx context.Context, uid string) (domain.RecordSubscription, error) {
	pubsub := s.client.Subscribe(ctx, changesChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe record: %w", err)
	}
	sub := &recordSub{out: make(chan domain.Record, 1), pubsub: pubsub, uid: uid}
	go sub.run(ctx, s)
	return sub, nil
}

// SaveCredentials registers login credentials, rejecting duplicate emails.
func (s *RedisStore) SaveCredentials(ctx context.Context, creds domain.Credentials) error {
	payload, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	ok, err := s.client.SetNX(ctx, credsKeyPrefix+creds.Email, payload, 0).Result()
	if err != nil {
		return fmt.Errorf("redis save credentials: %w", err)
	}
	if !ok {
		return domain.ErrEmailTaken
	}
	return nil
}

// LookupCredentials fetches credentials by email.
func (s *RedisStore) LookupCredentials(ctx context.Context, email string) (domain.Credentials, error) {
	payload, err := s.client.Get(ctx, credsKeyPrefix+email).Result()
	if err == redis.Nil {
		return domain.Credentials{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("redis lookup credentials: %w", err)
	}
	var creds domain.Credentials
	if err := json.Unmarshal([]byte(payload), &creds); err != nil {
		return domain.Credentials{}, fmt.Errorf("unmarshal credentials: %w", err)
	}
	return creds, nil
}

func (s *RedisStore) publish(ctx context.Context, uid string) error {
	if err := s.client.Publish(ctx, changesChannel, uid).Err(); err != nil {
		return fmt.Errorf("redis publish change: %w", err)
	}
	return nil
}

func userKey(uid string) string { return userKeyPrefix + uid }

// recordFromHash keeps hash values as strings; Record accessors parse the
// numeric fields on demand.
func recordFromHash(values map[string]string) domain.Record {
	rec := make(domain.Record, len(values))
	for k, v := range values {
		rec[k] = v
	}
	return rec
}

type snapshotSub struct {
	out    chan domain.Snapshot
	pubsub *redis.PubSub
}

func (s *snapshotSub) Snapshots() <-chan domain.Snapshot { return s.out }

func (s *snapshotSub) Stop() { _ = s.pubsub.Close() }

func (s *snapshotSub) run(ctx context.Context, store *RedisStore) {
	defer close(s.out)
	if snap, err := store.ReadAll(ctx); err == nil {
		deliver(s.out, snap)
	} else {
		subscriptionErrorsTotal.Inc()
		store.logger.Warn("initial snapshot read failed", zap.Error(err))
	}
	for range s.pubsub.Channel() {
		snap, err := store.ReadAll(ctx)
		if err != nil {
			subscriptionErrorsTotal.Inc()
			store.logger.Warn("snapshot read failed", zap.Error(err))
			continue
		}
		deliver(s.out, snap)
	}
}

type recordSub struct {
	out    chan domain.Record
	pubsub *redis.PubSub
	uid    string
}

func (s *recordSub) Records() <-chan domain.Record { return s.out }

func (s *recordSub) Stop() { _ = s.pubsub.Close() }

func (s *recordSub) run(ctx context.Context, store *RedisStore) {
	defer close(s.out)
	if rec, err := store.Read(ctx, s.uid); err == nil {
		deliver(s.out, rec)
	}
	for msg := range s.pubsub.Channel() {
		if msg.Payload != s.uid {
			continue
		}
		rec, err := store.Read(ctx, s.uid)
		if err != nil {
			if err != domain.ErrNotFound {
				subscriptionErrorsTotal.Inc()
				store.logger.Warn("record read failed", zap.String("uid", s.uid), zap.Error(err))
			}
			continue
		}
		deliver(s.out, rec)
	}
}

// deliver replaces any undelivered value so the consumer always sees the
// latest state, never a backlog.
func deliver[T any](out chan T, v T) {
	for {
		select {
		case out <- v:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}
