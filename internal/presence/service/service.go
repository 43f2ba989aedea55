package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/danieleon08/Taller3-Movil/internal/auth"
	"github.com/danieleon08/Taller3-Movil/internal/presence/domain"
)

const minPasswordLength = 6

var (
	ErrMissingFields  = errors.New("all fields are required")
	ErrInvalidEmail   = errors.New("invalid email address")
	ErrShortPassword  = errors.New("password must be at least 6 characters")
	ErrNotRecordOwner = errors.New("record belongs to another user")
)

// Service implements the account and availability operations: registration,
// login, status toggling, the available-users listing and position updates.
type Service struct {
	store     domain.Store
	creds     domain.CredentialStore
	jwtSecret string
	jwtTTL    time.Duration
	now       func() time.Time
}

// New constructs a Service.
func New(store domain.Store, creds domain.CredentialStore, jwtSecret string, jwtTTL time.Duration) *Service {
	if jwtTTL <= 0 {
		jwtTTL = 24 * time.Hour
	}
	return &Service{
		store:     store,
		creds:     creds,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRequest carries the registration form fields.
type RegisterRequest struct {
	FirstName  string `json:"nombre"`
	LastName   string `json:"apellido"`
	DocumentID string `json:"identificacion"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

// Register creates the account and its presence record. The record starts at
// position (0,0) and without an estado field; the first toggle sets it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (domain.User, error) {
	if req.FirstName == "" || req.LastName == "" || req.DocumentID == "" ||
		req.Email == "" || req.Password == "" {
		return domain.User{}, ErrMissingFields
	}
	if !emailValid(req.Email) {
		return domain.User{}, ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return domain.User{}, ErrShortPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		UID:        uuid.NewString(),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		DocumentID: req.DocumentID,
	}
	if err := s.creds.SaveCredentials(ctx, domain.Credentials{
		Email:        req.Email,
		UID:          user.UID,
		PasswordHash: string(hash),
	}); err != nil {
		return domain.User{}, err
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// LoginResponse returns the issued token and the owning uid.
type LoginResponse struct {
	UID       string    `json:"uid"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expira"`
}

// Login verifies credentials and issues a JWT.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	creds, err := s.creds.LookupCredentials(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return LoginResponse{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResponse{}, fmt.Errorf("lookup credentials: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)) != nil {
		return LoginResponse{}, domain.ErrInvalidCredentials
	}
	now := s.now()
	token, err := auth.IssueToken(s.jwtSecret, creds.UID, s.jwtTTL, now)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("issue token: %w", err)
	}
	return LoginResponse{UID: creds.UID, Token: token, ExpiresAt: now.Add(s.jwtTTL)}, nil
}

// ToggleStatus flips the user's availability: Disponible becomes
// Desconectado, anything else (including a record with no estado yet)
// becomes Disponible. Returns the new status.
func (s *Service) ToggleStatus(ctx context.Context, uid string) (domain.Status, error) {
	rec, err := s.store.Read(ctx, uid)
	if err != nil {
		return "", err
	}
	next := domain.StatusAvailable
	if current, ok := rec.Status(); ok && current == domain.StatusAvailable {
		next = domain.StatusDisconnected
	}
	if err := s.store.WriteField(ctx, uid, domain.FieldStatus, string(next)); err != nil {
		return "", err
	}
	return next, nil
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, uid string) (domain.User, error) {
	rec, err := s.store.Read(ctx, uid)
	if err != nil {
		return domain.User{}, err
	}
	return domain.UserFromRecord(rec), nil
}

// ListAvailable returns every user whose estado is Disponible, ordered by
// first name for a stable listing.
func (s *Service) ListAvailable(ctx context.Context) ([]domain.User, error) {
	snap, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(snap))
	for _, rec := range snap {
		if status, ok := rec.Status(); ok && status == domain.StatusAvailable {
			users = append(users, domain.UserFromRecord(rec))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].FirstName < users[j].FirstName })
	return users, nil
}

// UpdatePosition writes the user's position directly, for clients that report
// over REST instead of the fix stream.
func (s *Service) UpdatePosition(ctx context.Context, uid string, point domain.GeoPoint) error {
	return s.store.WritePosition(ctx, uid, point)
}

func emailValid(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 {
		return false
	}
	rest := email[at+1:]
	return strings.Contains(rest, ".") && !strings.HasPrefix(rest, ".") && !strings.HasSuffix(rest, ".")
}
