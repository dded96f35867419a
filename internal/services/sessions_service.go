package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/MHC32/momentum/internal/api"
	"github.com/MHC32/momentum/internal/models"
	"github.com/MHC32/momentum/internal/storage"
)

const (
	tokenStorageKey = "token"
	userStorageKey  = "user"
)

type sessionServiceImpl struct {
	logger    zerolog.Logger
	client    *api.Client
	storage   storage.Storage
	lifecycle SessionLifecycle
	now       func() time.Time

	mu      sync.RWMutex
	session *models.Session
}

// NewSessionService registers itself as the client's authenticator.
func NewSessionService(
	logger zerolog.Logger,
	client *api.Client,
	stateStorage storage.Storage,
	lifecycle SessionLifecycle,
) SessionService {
	s := &sessionServiceImpl{
		logger:    logger,
		client:    client,
		storage:   stateStorage,
		lifecycle: lifecycle,
		now:       time.Now,
	}
	client.SetAuthenticator(s)
	return s
}

func (s *sessionServiceImpl) Login(ctx context.Context, params LoginParams) (*models.Session, error) {
	result, err := s.client.Login(ctx, api.LoginInput{
		Email:    params.Email,
		Password: params.Password,
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("email", params.Email).
			Msg("failed to login")
		return nil, err
	}

	return s.establish(ctx, result)
}

func (s *sessionServiceImpl) Register(ctx context.Context, params RegisterParams) (*models.Session, error) {
	result, err := s.client.Register(ctx, api.RegisterInput{
		Name:     params.Name,
		Email:    params.Email,
		Password: params.Password,
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("email", params.Email).
			Msg("failed to register")
		return nil, err
	}

	return s.establish(ctx, result)
}

func (s *sessionServiceImpl) establish(ctx context.Context, result *api.AuthResult) (*models.Session, error) {
	if _, active := s.Current(); active {
		s.end(ctx, "replaced")
	}

	session := models.Session{
		Token: result.Token,
		User:  result.User,
	}
	session.ExpiresAt = s.tokenExpiry(session.Token)

	userJSON, err := json.Marshal(session.User)
	if err != nil {
		return nil, err
	}
	err = s.storage.Set(ctx, tokenStorageKey, []byte(session.Token))
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to persist token")
		return nil, err
	}
	err = s.storage.Set(ctx, userStorageKey, userJSON)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to persist user")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", session.User.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("persisted session")

	if !s.start(ctx, session) {
		return nil, ErrNoSession
	}

	s.logger.Info().
		Str("user_id", session.User.ID).
		Msg("session established")
	return &session, nil
}

func (s *sessionServiceImpl) Restore(ctx context.Context) (*models.Session, error) {
	token, err := s.storage.Get(ctx, tokenStorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Info().Msg("no persisted session")
			return nil, ErrNoSession
		}

		s.logger.Error().
			Err(err).
			Msg("failed to load token")
		return nil, err
	}

	userJSON, err := s.storage.Get(ctx, userStorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().Msg("persisted token without user, clearing")
			s.clearStorage(ctx)
			return nil, ErrSessionCorrupted
		}

		s.logger.Error().
			Err(err).
			Msg("failed to load user")
		return nil, err
	}

	session := models.Session{Token: string(token)}
	err = json.Unmarshal(userJSON, &session.User)
	if err != nil || session.Token == "" {
		s.logger.Warn().
			Err(err).
			Msg("persisted session corrupted, clearing")
		s.clearStorage(ctx)
		return nil, ErrSessionCorrupted
	}

	session.ExpiresAt = s.tokenExpiry(session.Token)
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(s.now()) {
		s.logger.Info().
			Time("expires_at", session.ExpiresAt).
			Msg("persisted session expired, clearing")
		s.clearStorage(ctx)
		return nil, ErrSessionExpired
	}

	if !s.start(ctx, session) {
		return nil, ErrNoSession
	}

	s.logger.Info().
		Str("user_id", session.User.ID).
		Msg("session restored")
	return &session, nil
}

func (s *sessionServiceImpl) Logout(ctx context.Context) error {
	if _, active := s.Current(); !active {
		s.clearStorage(ctx)
		return nil
	}

	s.end(ctx, "logout")
	return nil
}

func (s *sessionServiceImpl) ForceLogout() {
	if _, active := s.Current(); !active {
		return
	}

	s.logger.Warn().Msg("token rejected, forcing logout")
	s.end(context.Background(), "unauthorized")
}

func (s *sessionServiceImpl) Current() (*models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil, false
	}
	session := *s.session
	return &session, true
}

func (s *sessionServiceImpl) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return ""
	}
	return s.session.Token
}

func (s *sessionServiceImpl) Unauthorized() {
	s.ForceLogout()
}

// start publishes the session before starting synchronization so that the
// initial refetch can already authenticate. It reports whether the session
// survived startup; a rejected token ends it on the way.
func (s *sessionServiceImpl) start(ctx context.Context, session models.Session) bool {
	s.mu.Lock()
	s.session = &session
	s.mu.Unlock()

	err := s.lifecycle.Start(ctx, session)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("user_id", session.User.ID).
			Msg("synchronization started with errors")
	}

	current, ok := s.Current()
	return ok && current.Token == session.Token
}

// end clears the session exactly once even if several callers race.
func (s *sessionServiceImpl) end(ctx context.Context, reason string) {
	s.mu.Lock()
	session := s.session
	s.session = nil
	s.mu.Unlock()

	if session == nil {
		return
	}

	s.lifecycle.Stop()
	s.clearStorage(ctx)

	s.logger.Info().
		Str("user_id", session.User.ID).
		Str("reason", reason).
		Msg("session ended")
}

func (s *sessionServiceImpl) clearStorage(ctx context.Context) {
	err := s.storage.Clear(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to clear persisted session")
	}
}

// tokenExpiry reads the exp claim without verifying the signature; the
// backend remains the authority on validity. Opaque tokens yield zero.
func (s *sessionServiceImpl) tokenExpiry(token string) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, &jwt.RegisteredClaims{})
	if err != nil {
		s.logger.Debug().
			Err(err).
			Msg("token is not a readable jwt")
		return time.Time{}
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
