package users

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestService() *Service {
	return NewService(NewMemoryRepository(), NewBcryptHasher(bcrypt.MinCost))
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, Credentials{Username: "casper", Password: "friendly"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == "" || user.PasswordHash == "" || user.PasswordHash == "friendly" {
		t.Fatalf("unexpected user %+v", user)
	}

	authed, err := svc.Authenticate(ctx, Credentials{Username: "casper", Password: "friendly"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("expected %s, got %s", user.ID, authed.ID)
	}

	fetched, err := svc.Get(ctx, user.ID)
	if err != nil || fetched.Username != "casper" {
		t.Fatalf("get: %+v %v", fetched, err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Username: "casper", Password: "a"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, Credentials{Username: "casper", Password: "b"})
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestRegisterUsernameIsCaseSensitive(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Username: "Casper", Password: "a"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, Credentials{Username: "casper", Password: "a"}); err != nil {
		t.Fatalf("expected different case to register, got %v", err)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []Credentials{
		{Username: "", Password: "pw"},
		{Username: "   ", Password: "pw"},
		{Username: "casper", Password: ""},
	}
	for _, creds := range cases {
		if _, err := svc.Register(ctx, creds); !errors.Is(err, ErrMissingCredentials) {
			t.Fatalf("%+v: expected ErrMissingCredentials, got %v", creds, err)
		}
	}
}

func TestRegisterPasswordTooLong(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, Credentials{Username: "casper", Password: strings.Repeat("x", MaxPasswordBytes+1)})
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, Credentials{Username: "casper", Password: "x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("rejected registration must not be stored, got %v", err)
	}

	// Multi-byte runes count by bytes: 25 three-byte runes exceed the limit.
	_, err = svc.Register(ctx, Credentials{Username: "casper", Password: strings.Repeat("€", 25)})
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong for multi-byte password, got %v", err)
	}

	if _, err := svc.Register(ctx, Credentials{Username: "casper", Password: strings.Repeat("x", MaxPasswordBytes)}); err != nil {
		t.Fatalf("72-byte password should register: %v", err)
	}
}

func TestAuthenticateSameErrorForUnknownUserAndWrongPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Username: "casper", Password: "friendly"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPw := svc.Authenticate(ctx, Credentials{Username: "casper", Password: "nope"})
	_, unknown := svc.Authenticate(ctx, Credentials{Username: "slimer", Password: "friendly"})

	if !errors.Is(wrongPw, ErrInvalidCredentials) || !errors.Is(unknown, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v and %v", wrongPw, unknown)
	}
	if wrongPw.Error() != unknown.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPw, unknown)
	}
}

func TestConcurrentRegistrationSingleWinner(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, NewBcryptHasher(bcrypt.MinCost))
	ctx := context.Background()

	const callers = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Register(ctx, Credentials{Username: "poltergeist", Password: "pw"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrDuplicateUsername):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if successes != 1 || duplicates != callers-1 {
		t.Fatalf("expected 1 success and %d duplicates, got %d and %d", callers-1, successes, duplicates)
	}
}
