package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"
	apperrors "ezstream/pkg/errors"
	"ezstream/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// fallbackTTL bounds tokens for sessions the vendor returned without an expiry.
const fallbackTTL = 2 * time.Hour

type Claims struct {
	SessionID domain.SessionID `json:"sid"`
	jwt.RegisteredClaims
}

type sessionTokenService struct {
	jwtSecret []byte
	issuer    string
	sessions  ports.SessionRepository
}

func NewSessionTokenService(jwtSecret, issuer string, sessions ports.SessionRepository) ports.SessionTokenService {
	return &sessionTokenService{
		jwtSecret: []byte(jwtSecret),
		issuer:    issuer,
		sessions:  sessions,
	}
}

// Issue stores the session and returns a bearer token that expires with it.
func (s *sessionTokenService) Issue(ctx context.Context, session *domain.Session) (string, error) {
	now := utils.Now()
	if session.ID == "" {
		session.ID = domain.SessionID(uuid.New().String())
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}

	expiresAt := session.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(fallbackTTL)
	}
	if !expiresAt.After(now) {
		return "", apperrors.NewInvalidInputError("session already expired")
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	claims := &Claims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   string(session.ID),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *sessionTokenService) Resolve(ctx context.Context, tokenString string) (*domain.Session, error) {
	claims, err := s.validateToken(tokenString)
	if err != nil {
		msg := "Please authenticate first"
		if errors.Is(err, ErrExpiredToken) {
			msg = "Session expired, please authenticate first"
		}
		return nil, apperrors.WrapError(err, apperrors.ErrCodeUnauthorized, msg, http.StatusUnauthorized)
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, apperrors.WrapError(err, apperrors.ErrCodeUnauthorized, "Please authenticate first", http.StatusUnauthorized)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

func (s *sessionTokenService) Revoke(ctx context.Context, tokenString string) error {
	claims, err := s.validateToken(tokenString)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeUnauthorized, "invalid session token", http.StatusUnauthorized)
	}
	return s.sessions.Delete(ctx, claims.SessionID)
}

func (s *sessionTokenService) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(utils.Now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.SessionID != "" {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
