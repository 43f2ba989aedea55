package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danieleon08/Taller3-Movil/internal/poi"
	"github.com/danieleon08/Taller3-Movil/internal/presence/handler"
	"github.com/danieleon08/Taller3-Movil/internal/presence/service"
	"github.com/danieleon08/Taller3-Movil/internal/presence/store"
	"github.com/danieleon08/Taller3-Movil/internal/tracking"
)

const jwtSecret = "test-secret"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := store.NewMemoryStore()
	svc := service.New(st, st, jwtSecret, 0)
	pois := []poi.Point{{Latitude: 4.6, Longitude: -74.08, Name: "Centro"}}
	h := handler.NewHTTP(svc, pois, tracking.NewSegmentBoard(), jwtSecret)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func registerAndLogin(t *testing.T, srv *httptest.Server) (uid, token string) {
	t.Helper()
	body := `{"nombre":"Ana","apellido":"Pérez","identificacion":"1020304050","email":"ana@example.com","password":"secreta"}`
	resp, err := http.Post(srv.URL+"/v1/usuarios", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/v1/login", "application/json",
		bytes.NewBufferString(`{"email":"ana@example.com","password":"secreta"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login service.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.NotEmpty(t, login.Token)
	return login.UID, login.Token
}

func authedRequest(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestRegisterLoginToggleFlow(t *testing.T) {
	srv := newServer(t)
	uid, token := registerAndLogin(t, srv)

	url := fmt.Sprintf("%s/v1/usuarios/%s/estado", srv.URL, uid)
	resp := authedRequest(t, http.MethodPost, url, token, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var toggled map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&toggled))
	require.Equal(t, "Disponible", toggled["estado"])

	resp, err := http.Get(srv.URL + "/v1/usuarios/disponibles")
	require.NoError(t, err)
	defer resp.Body.Close()
	var users []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	require.Len(t, users, 1)
	require.Equal(t, uid, users[0]["uid"])
}

func TestToggleRequiresToken(t *testing.T) {
	srv := newServer(t)
	uid, _ := registerAndLogin(t, srv)

	url := fmt.Sprintf("%s/v1/usuarios/%s/estado", srv.URL, uid)
	resp := authedRequest(t, http.MethodPost, url, "", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestToggleRejectsForeignRecord(t *testing.T) {
	srv := newServer(t)
	_, token := registerAndLogin(t, srv)

	url := srv.URL + "/v1/usuarios/alguien-mas/estado"
	resp := authedRequest(t, http.MethodPost, url, token, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUpdatePosition(t *testing.T) {
	srv := newServer(t)
	uid, token := registerAndLogin(t, srv)

	url := fmt.Sprintf("%s/v1/usuarios/%s/posicion", srv.URL, uid)
	resp := authedRequest(t, http.MethodPut, url, token, `{"latitud":4.61,"longitud":-74.09}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := http.Get(srv.URL + "/v1/usuarios/" + uid)
	require.NoError(t, err)
	defer resp.Body.Close()
	var user map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	require.InDelta(t, 4.61, user["latitud"], 1e-9)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	srv := newServer(t)
	registerAndLogin(t, srv)

	body := `{"nombre":"Otra","apellido":"Gómez","identificacion":"99","email":"ana@example.com","password":"secreta"}`
	resp, err := http.Post(srv.URL+"/v1/usuarios", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPOIsAndRoutes(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/v1/pois")
	require.NoError(t, err)
	defer resp.Body.Close()
	var points []poi.Point
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&points))
	require.Len(t, points, 1)

	resp, err = http.Get(srv.URL + "/v1/rutas/nadie")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
