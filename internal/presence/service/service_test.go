package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danieleon08/Taller3-Movil/internal/presence/domain"
	"github.com/danieleon08/Taller3-Movil/internal/presence/service"
	"github.com/danieleon08/Taller3-Movil/internal/presence/store"
)

func newService() (*service.Service, *store.MemoryStore) {
	st := store.NewMemoryStore()
	return service.New(st, st, "test-secret", 0), st
}

func validRequest() service.RegisterRequest {
	return service.RegisterRequest{
		FirstName:  "Ana",
		LastName:   "Pérez",
		DocumentID: "1020304050",
		Email:      "ana@example.com",
		Password:   "secreta",
	}
}

func TestRegisterCreatesRecordWithDefaults(t *testing.T) {
	svc, st := newService()
	ctx := context.Background()

	user, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)
	require.NotEmpty(t, user.UID)

	rec, err := st.Read(ctx, user.UID)
	require.NoError(t, err)

	// estado stays unset until the first toggle; position starts at origin.
	_, ok := rec.Status()
	require.False(t, ok)
	lat, _ := rec.Float(domain.FieldLatitude)
	lng, _ := rec.Float(domain.FieldLongitude)
	require.Zero(t, lat)
	require.Zero(t, lng)

	// The password hash never reaches the presence record.
	for field := range rec {
		require.NotContains(t, []string{"password", "contraseña"}, field)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	req := validRequest()
	req.FirstName = ""
	_, err := svc.Register(ctx, req)
	require.ErrorIs(t, err, service.ErrMissingFields)

	req = validRequest()
	req.Email = "not-an-email"
	_, err = svc.Register(ctx, req)
	require.ErrorIs(t, err, service.ErrInvalidEmail)

	req = validRequest()
	req.Password = "corta"
	_, err = svc.Register(ctx, req)
	require.ErrorIs(t, err, service.ErrShortPassword)

	_, err = svc.Register(ctx, validRequest())
	require.NoError(t, err)
	_, err = svc.Register(ctx, validRequest())
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	user, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)

	resp, err := svc.Login(ctx, "ana@example.com", "secreta")
	require.NoError(t, err)
	require.Equal(t, user.UID, resp.UID)
	require.NotEmpty(t, resp.Token)

	_, err = svc.Login(ctx, "ana@example.com", "equivocada")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nadie@example.com", "secreta")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestToggleStatus(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	user, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)

	// No estado yet: first toggle makes the user available.
	status, err := svc.ToggleStatus(ctx, user.UID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAvailable, status)

	status, err = svc.ToggleStatus(ctx, user.UID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDisconnected, status)

	status, err = svc.ToggleStatus(ctx, user.UID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAvailable, status)

	_, err = svc.ToggleStatus(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListAvailable(t *testing.T) {
	svc, st := newService()
	ctx := context.Background()

	require.NoError(t, st.SaveUser(ctx, domain.User{UID: "u1", FirstName: "Ana", Status: domain.StatusAvailable}))
	require.NoError(t, st.SaveUser(ctx, domain.User{UID: "u2", FirstName: "Luis", Status: domain.StatusDisconnected}))
	require.NoError(t, st.SaveUser(ctx, domain.User{UID: "u3", FirstName: "Carla", Status: domain.StatusAvailable}))
	require.NoError(t, st.SaveUser(ctx, domain.User{UID: "u4", FirstName: "Sin Estado"}))

	users, err := svc.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "Ana", users[0].FirstName)
	require.Equal(t, "Carla", users[1].FirstName)
}

func TestUpdatePosition(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	user, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.UpdatePosition(ctx, user.UID, domain.GeoPoint{Lat: 4.6, Lng: -74.08}))
	got, err := svc.Get(ctx, user.UID)
	require.NoError(t, err)
	require.Equal(t, 4.6, got.Latitude)
	require.Equal(t, -74.08, got.Longitude)
}
