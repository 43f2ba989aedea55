package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/danieleon08/Taller3-Movil/internal/auth"
	"github.com/danieleon08/Taller3-Movil/internal/poi"
	"github.com/danieleon08/Taller3-Movil/internal/presence/domain"
	"github.com/danieleon08/Taller3-Movil/internal/presence/service"
	"github.com/danieleon08/Taller3-Movil/internal/tracking"
)

// HTTP exposes the account, availability and route endpoints.
type HTTP struct {
	svc       *service.Service
	pois      []poi.Point
	segments  *tracking.SegmentBoard
	jwtSecret string
}

// NewHTTP constructs the handler. segments may be nil when the route surface
// runs in a separate process.
func NewHTTP(svc *service.Service, pois []poi.Point, segments *tracking.SegmentBoard, jwtSecret string) *HTTP {
	return &HTTP{svc: svc, pois: pois, segments: segments, jwtSecret: jwtSecret}
}

// Router builds the chi router with all endpoints and middlewares.
func (h *HTTP) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	r.Post("/v1/usuarios", h.register)
	r.Post("/v1/login", h.login)
	r.Get("/v1/usuarios/disponibles", h.listAvailable)
	r.Get("/v1/usuarios/{id}", h.getUser)
	r.Get("/v1/pois", h.listPOIs)
	r.Get("/v1/rutas/{id}", h.getRoute)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.jwtSecret))
		r.Post("/v1/usuarios/{id}/estado", h.toggleStatus)
		r.Put("/v1/usuarios/{id}/posicion", h.updatePosition)
	})

	return r
}

func (h *HTTP) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	user, err := h.svc.Register(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *HTTP) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTP) listAvailable(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListAvailable(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *HTTP) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *HTTP) toggleStatus(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "id")
	if !ownRecord(r, uid) {
		http.Error(w, service.ErrNotRecordOwner.Error(), http.StatusForbidden)
		return
	}
	status, err := h.svc.ToggleStatus(r.Context(), uid)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"estado": string(status)})
}

func (h *HTTP) updatePosition(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "id")
	if !ownRecord(r, uid) {
		http.Error(w, service.ErrNotRecordOwner.Error(), http.StatusForbidden)
		return
	}
	var point domain.GeoPoint
	if err := json.NewDecoder(r.Body).Decode(&point); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.svc.UpdatePosition(r.Context(), uid, point); err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	writeJSON(w, http.StatusOK, point)
}

func (h *HTTP) listPOIs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.pois)
}

func (h *HTTP) getRoute(w http.ResponseWriter, r *http.Request) {
	if h.segments == nil {
		http.Error(w, "route surface not available", http.StatusNotFound)
		return
	}
	seg, ok := h.segments.Segment(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "no route drawn", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, seg)
}

func ownRecord(r *http.Request, uid string) bool {
	caller, ok := auth.UIDFromContext(r.Context())
	return ok && caller == uid
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrShortPassword):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
