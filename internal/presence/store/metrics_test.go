package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/danieleon08/Taller3-Movil/internal/presence/domain"
)

func TestSubscriptionReadFailuresCounted(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	st := NewRedisStore(client, nil)

	require.NoError(t, st.SaveUser(ctx, domain.User{UID: "u1", FirstName: "Ana"}))

	sub, err := st.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Stop()

	select {
	case <-sub.Snapshots():
	case <-time.After(2 * time.Second):
		t.Fatal("expected initial snapshot")
	}

	before := testutil.ToFloat64(subscriptionErrorsTotal)

	// Every command now fails, so the re-read triggered by the change notice
	// cannot complete.
	srv.SetError("read failure")
	defer srv.SetError("")
	srv.Publish(changesChannel, "u1")

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(subscriptionErrorsTotal) > before
	}, 2*time.Second, 10*time.Millisecond)
}
