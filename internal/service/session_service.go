package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/pantry-sync-api/internal/models"
	"github.com/noah-isme/pantry-sync-api/pkg/config"
	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
)

type sessionStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SessionClaims is the signed credential presented by operators. Its ID
// names the session record held by the store.
type SessionClaims struct {
	jwt.RegisteredClaims
}

type sessionRecord struct {
	Username   string `json:"username"`
	Permission int    `json:"permission"`
}

// SessionService verifies operator credentials against the session store.
// A credential is valid only while its record exists, so deleting the
// record revokes every connection that presents it.
type SessionService struct {
	store  sessionStore
	secret []byte
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

// NewSessionService constructs the verifier.
func NewSessionService(store sessionStore, cfg config.SessionConfig, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		store:  store,
		secret: []byte(cfg.Secret),
		prefix: cfg.KeyPrefix,
		logger: logger,
		now:    time.Now,
	}
}

// Verify checks the token signature and that the session is still recorded.
func (s *SessionService) Verify(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, appErrors.ErrAuthRequired
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, appErrors.Wrap(err, appErrors.ErrAuthRequired.Code, appErrors.ErrAuthRequired.Status, "invalid session token")
	}
	if claims.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrAuthRequired, "session token has no id")
	}

	var rec sessionRecord
	if err := s.store.Get(ctx, s.prefix+claims.ID, &rec); err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("session lookup failed", zap.String("session_id", claims.ID), zap.Error(err))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrAuthRequired.Code, appErrors.ErrAuthRequired.Status, "session expired or revoked")
	}
	if claims.Subject != "" && claims.Subject != rec.Username {
		return nil, appErrors.Clone(appErrors.ErrAuthRequired, "session does not belong to token subject")
	}

	return &models.Session{ID: claims.ID, Username: rec.Username, Permission: rec.Permission}, nil
}

// Create records a session and returns its signed token. It is an operator
// tool; interactive login lives outside this service.
func (s *SessionService) Create(ctx context.Context, username string, permission int, ttl time.Duration) (string, error) {
	if username == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "username is required")
	}
	id := uuid.NewString()
	if err := s.store.Set(ctx, s.prefix+id, sessionRecord{Username: username, Permission: permission}, ttl); err != nil {
		return "", err
	}

	issued := s.now().UTC()
	claims := SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		ID:       id,
		Subject:  username,
		IssuedAt: jwt.NewNumericDate(issued),
	}}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(issued.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Revoke deletes the session record.
func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, s.prefix+sessionID)
}
