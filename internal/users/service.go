package users

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

var (
	// ErrMissingCredentials is returned when username or password is blank.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords so
	// callers cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrPasswordTooLong is returned when the password exceeds MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
)

var validate = validator.New()

// Service manages registration and credential checks.
type Service struct {
	repo   Repository
	hasher Hasher

	decoyOnce sync.Once
	decoy     string
}

// NewService creates a new user service.
func NewService(repo Repository, hasher Hasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// Register validates the credentials, hashes the password and stores a new user.
func (s *Service) Register(ctx context.Context, creds Credentials) (User, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := validate.Struct(creds); err != nil {
		return User{}, ErrMissingCredentials
	}
	if len(creds.Password) > MaxPasswordBytes {
		return User{}, ErrPasswordTooLong
	}

	hash, err := s.hasher.Hash(creds.Password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return User{}, ErrPasswordTooLong
	}
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.New().String(),
		Username:     creds.Username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Authenticate returns the user whose stored hash matches the supplied password.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := validate.Struct(creds); err != nil {
		return User{}, ErrMissingCredentials
	}

	user, err := s.repo.FindByUsername(ctx, creds.Username)
	if errors.Is(err, ErrNotFound) {
		// Burn a comparison so unknown usernames take as long as bad passwords.
		s.hasher.Verify(creds.Password, s.decoyHash())
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}

	if !s.hasher.Verify(creds.Password, user.PasswordHash) {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

// Get fetches a user by identifier.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) decoyHash() string {
	s.decoyOnce.Do(func() {
		s.decoy, _ = s.hasher.Hash(uuid.NewString())
	})
	return s.decoy
}
