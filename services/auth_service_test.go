package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/tubedash/domain"
)

// --- Mock Implementations ---

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) GetByUserAndProvider(ctx context.Context, userID, provider string) (*domain.TokenRecord, error) {
	args := m.Called(ctx, userID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenRecord), args.Error(1)
}

func (m *MockCredentialRepository) CompareAndSwap(ctx context.Context, userID, provider string, expectedVersion int64, rec *domain.TokenRecord) error {
	args := m.Called(ctx, userID, provider, expectedVersion, rec)
	return args.Error(0)
}

func (m *MockCredentialRepository) Upsert(ctx context.Context, rec *domain.TokenRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Set(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionStore) Delete(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// --- AuthService Tests ---

func TestAuthService_IngestCredential(t *testing.T) {
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour)

	input := IngestCredentialInput{
		Email:             "creator@example.com",
		Name:              "Creator",
		ProviderAccountID: "google-acct-1",
		AccessToken:       "access-1",
		RefreshToken:      "refresh-1",
		ExpiresAt:         &expiry,
	}

	t.Run("ExistingUser", func(t *testing.T) {
		users := new(MockUserRepository)
		creds := new(MockCredentialRepository)
		sessions := new(MockSessionStore)
		svc := NewAuthService(users, creds, sessions, time.Hour)

		existing := &domain.User{ID: "user-1", Email: input.Email}
		users.On("GetByEmail", ctx, input.Email).Return(existing, nil).Once()
		creds.On("Upsert", ctx, mock.AnythingOfType("*domain.TokenRecord")).Run(func(args mock.Arguments) {
			rec := args.Get(1).(*domain.TokenRecord)
			assert.Equal(t, "user-1", rec.UserID)
			assert.Equal(t, domain.ProviderGoogle, rec.Provider)
			assert.Equal(t, "access-1", rec.AccessToken)
			assert.Equal(t, "refresh-1", rec.RefreshToken)
		}).Return(nil).Once()
		sessions.On("Set", ctx, mock.AnythingOfType("*domain.Session")).Return(nil).Once()

		session, err := svc.IngestCredential(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, "user-1", session.UserID)
		assert.NotEmpty(t, session.Token)
		assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)

		users.AssertExpectations(t)
		creds.AssertExpectations(t)
		sessions.AssertExpectations(t)
	})

	t.Run("NewUserIsCreated", func(t *testing.T) {
		users := new(MockUserRepository)
		creds := new(MockCredentialRepository)
		sessions := new(MockSessionStore)
		svc := NewAuthService(users, creds, sessions, time.Hour)

		users.On("GetByEmail", ctx, input.Email).Return(nil, domain.ErrUserNotFound).Once()
		users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Run(func(args mock.Arguments) {
			user := args.Get(1).(*domain.User)
			assert.Equal(t, input.Email, user.Email)
			assert.Equal(t, input.Name, user.Name)
			assert.NotEmpty(t, user.ID)
		}).Return(nil).Once()
		creds.On("Upsert", ctx, mock.AnythingOfType("*domain.TokenRecord")).Return(nil).Once()
		sessions.On("Set", ctx, mock.AnythingOfType("*domain.Session")).Return(nil).Once()

		session, err := svc.IngestCredential(ctx, input)
		require.NoError(t, err)
		assert.NotEmpty(t, session.UserID)

		users.AssertExpectations(t)
	})

	t.Run("MissingAccessTokenRejected", func(t *testing.T) {
		svc := NewAuthService(new(MockUserRepository), new(MockCredentialRepository), new(MockSessionStore), time.Hour)

		bad := input
		bad.AccessToken = ""
		_, err := svc.IngestCredential(ctx, bad)
		assert.Error(t, err)
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("ValidSession", func(t *testing.T) {
		sessions := new(MockSessionStore)
		svc := NewAuthService(new(MockUserRepository), new(MockCredentialRepository), sessions, time.Hour)

		sessions.On("Get", ctx, "tok-1").Return(&domain.Session{
			Token:     "tok-1",
			UserID:    "user-1",
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil).Once()

		session, err := svc.Authenticate(ctx, "tok-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", session.UserID)
	})

	t.Run("ExpiredSessionRejected", func(t *testing.T) {
		sessions := new(MockSessionStore)
		svc := NewAuthService(new(MockUserRepository), new(MockCredentialRepository), sessions, time.Hour)

		sessions.On("Get", ctx, "tok-old").Return(&domain.Session{
			Token:     "tok-old",
			UserID:    "user-1",
			ExpiresAt: time.Now().Add(-time.Minute),
		}, nil).Once()

		_, err := svc.Authenticate(ctx, "tok-old")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("EmptyTokenRejected", func(t *testing.T) {
		svc := NewAuthService(new(MockUserRepository), new(MockCredentialRepository), new(MockSessionStore), time.Hour)

		_, err := svc.Authenticate(ctx, "")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	sessions := new(MockSessionStore)
	svc := NewAuthService(new(MockUserRepository), new(MockCredentialRepository), sessions, time.Hour)

	sessions.On("Delete", ctx, "tok-1").Return(nil).Once()

	require.NoError(t, svc.Logout(ctx, "tok-1"))
	sessions.AssertExpectations(t)
}
