package auth

import (
	"context"

	"github.com/haunted-atlas/haunted_atlas/internal/users"
)

// Session is the result of a successful login.
type Session struct {
	Token    string
	Username string
}

// Service logs users in by checking credentials and issuing a token.
type Service struct {
	users  *users.Service
	tokens *Tokens
}

// NewService wires the credential checker to the token issuer.
func NewService(userSvc *users.Service, tokens *Tokens) *Service {
	return &Service{users: userSvc, tokens: tokens}
}

// Login validates credentials and issues a token for the matching user.
func (s *Service) Login(ctx context.Context, creds users.Credentials) (Session, error) {
	user, err := s.users.Authenticate(ctx, creds)
	if err != nil {
		return Session{}, err
	}

	token, err := s.tokens.Issue(Claims{Subject: user.ID, Username: user.Username})
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, Username: user.Username}, nil
}
