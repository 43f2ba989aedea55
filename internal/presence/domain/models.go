package domain

import (
	"context"
	"errors"
	"strconv"
)

// Status is the availability state stored under the "estado" field. The wire
// values are part of the contract with existing clients and stay in Spanish.
type Status string

const (
	StatusAvailable    Status = "Disponible"
	StatusDisconnected Status = "Desconectado"
)

// Field names of the persisted user record. These are the wire contract with
// the store and must not be renamed.
const (
	FieldUID        = "uid"
	FieldFirstName  = "nombre"
	FieldLastName   = "apellido"
	FieldEmail      = "email"
	FieldDocumentID = "identificacion"
	FieldStatus     = "estado"
	FieldLatitude   = "latitud"
	FieldLongitude  = "longitud"
)

var ErrNotFound = errors.New("user not found")

// GeoPoint is a position in floating-point degrees.
type GeoPoint struct {
	Lat float64 `json:"latitud"`
	Lng float64 `json:"longitud"`
}

// Record is the raw store form of a user: field name to value. Absent fields
// are missing keys; callers treat a missing key and a null value identically.
type Record map[string]any

// String returns the named field as a string.
func (r Record) String(field string) (string, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Float returns the named field as a float64. Numeric strings are accepted
// since hash-backed stores persist every value as text.
func (r Record) Float(field string) (float64, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Status returns the availability field, if present.
func (r Record) Status() (Status, bool) {
	s, ok := r.String(FieldStatus)
	return Status(s), ok
}

// Snapshot is a full point-in-time copy of all records, keyed by uid, pushed
// by the store on any mutation.
type Snapshot map[string]Record

// User is the typed record used by the service and HTTP layers. JSON tags are
// the same wire names the store uses.
type User struct {
	UID        string  `json:"uid"`
	FirstName  string  `json:"nombre"`
	LastName   string  `json:"apellido"`
	Email      string  `json:"email"`
	DocumentID string  `json:"identificacion"`
	Status     Status  `json:"estado,omitempty"`
	Latitude   float64 `json:"latitud"`
	Longitude  float64 `json:"longitud"`
}

// Fields converts the user to its store form. Status is only included once
// set: a freshly registered user carries no estado field at all.
func (u User) Fields() Record {
	rec := Record{
		FieldUID:        u.UID,
		FieldFirstName:  u.FirstName,
		FieldLastName:   u.LastName,
		FieldEmail:      u.Email,
		FieldDocumentID: u.DocumentID,
		FieldLatitude:   u.Latitude,
		FieldLongitude:  u.Longitude,
	}
	if u.Status != "" {
		rec[FieldStatus] = string(u.Status)
	}
	return rec
}

// UserFromRecord builds a typed user from the store form. Missing fields keep
// their zero values.
func UserFromRecord(rec Record) User {
	var u User
	u.UID, _ = rec.String(FieldUID)
	u.FirstName, _ = rec.String(FieldFirstName)
	u.LastName, _ = rec.String(FieldLastName)
	u.Email, _ = rec.String(FieldEmail)
	u.DocumentID, _ = rec.String(FieldDocumentID)
	if s, ok := rec.Status(); ok {
		u.Status = s
	}
	u.Latitude, _ = rec.Float(FieldLatitude)
	u.Longitude, _ = rec.Float(FieldLongitude)
	return u
}

// BecameAvailable is emitted when a user transitions from Desconectado to
// Disponible between two observed snapshots. It is produced and consumed
// within one snapshot pass, never queued or retried.
type BecameAvailable struct {
	UserID    string   `json:"uid"`
	FirstName string   `json:"nombre"`
	LastName  string   `json:"apellido"`
	Position  GeoPoint `json:"posicion"`
}

// Subscription is a live feed of full snapshots. Stop detaches from the
// store; no snapshot is delivered afterwards.
type Subscription interface {
	Snapshots() <-chan Snapshot
	Stop()
}

// RecordSubscription is a live feed of a single user's record.
type RecordSubscription interface {
	Records() <-chan Record
	Stop()
}

// Store is the real-time key-value store holding one record per user. A
// subscription fires with the full current state immediately on subscribe and
// again after every mutation.
type Store interface {
	ReadAll(ctx context.Context) (Snapshot, error)
	Read(ctx context.Context, uid string) (Record, error)
	SaveUser(ctx context.Context, user User) error
	WriteField(ctx context.Context, uid, field string, value any) error
	WritePosition(ctx context.Context, uid string, point GeoPoint) error
	Subscribe(ctx context.Context) (Subscription, error)
	SubscribeRecord(ctx context.Context, uid string) (RecordSubscription, error)
}

// Notifier surfaces a BecameAvailable event to users. Implementations must
// not block the watcher; deduplication, if any, is theirs.
type Notifier interface {
	Notify(ctx context.Context, event BecameAvailable)
}

// Fix is a single reported device position.
type Fix struct {
	Lat       float64
	Lng       float64
	Timestamp int64
}

// FixSource delivers periodic device fixes with no ordering or deduplication
// guarantee; consumers do their own threshold filtering.
type FixSource interface {
	Fixes() <-chan Fix
	Stop()
}
