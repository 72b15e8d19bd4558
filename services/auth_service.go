package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"go.pilab.hu/tubedash/domain"
	"go.pilab.hu/tubedash/internal/metrics"
)

// IngestCredentialInput carries the payload delivered by the front-channel
// after a completed Google consent: the user's identity plus the token grant.
type IngestCredentialInput struct {
	Email             string
	Name              string
	ProviderAccountID string
	AccessToken       string
	RefreshToken      string
	ExpiresAt         *time.Time
}

// AuthService links Google accounts to local users and manages login
// sessions. It never performs the consent redirect itself; it trusts the
// payload handed over by the front-channel.
type AuthService struct {
	users      domain.UserRepository
	creds      domain.CredentialRepository
	sessions   domain.SessionStore
	sessionTTL time.Duration
}

func NewAuthService(users domain.UserRepository, creds domain.CredentialRepository, sessions domain.SessionStore, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		creds:      creds,
		sessions:   sessions,
		sessionTTL: sessionTTL,
	}
}

// IngestCredential finds or creates the local user for the given email,
// stores the delegated token grant, and opens a login session. The returned
// session carries identity only, never the access token.
func (s *AuthService) IngestCredential(ctx context.Context, input IngestCredentialInput) (*domain.Session, error) {
	if input.Email == "" || input.ProviderAccountID == "" || input.AccessToken == "" {
		return nil, errors.New("email, provider account id and access token are required")
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		user = &domain.User{
			ID:    uuid.NewString(),
			Email: input.Email,
			Name:  input.Name,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("creating user: %w", err)
		}
		log.Info().Str("user_id", user.ID).Msg("created user from credential ingestion")
	} else if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	rec := &domain.TokenRecord{
		UserID:            user.ID,
		Provider:          domain.ProviderGoogle,
		ProviderAccountID: input.ProviderAccountID,
		AccessToken:       input.AccessToken,
		RefreshToken:      input.RefreshToken,
		ExpiresAt:         input.ExpiresAt,
	}
	if err := s.creds.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("storing credential: %w", err)
	}

	now := time.Now().UTC()
	session := &domain.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Set(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	metrics.SessionsOpenedTotal.Inc()
	log.Info().Str("user_id", user.ID).Msg("credential ingested, session opened")
	return session, nil
}

// Authenticate resolves a session token to its session, rejecting unknown or
// expired tokens.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrSessionNotFound
	}
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if !time.Now().Before(session.ExpiresAt) {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Logout destroys the session. Logging out an already absent session is not
// an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}
