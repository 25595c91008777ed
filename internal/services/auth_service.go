package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"legalizador/internal/caching"
	"legalizador/internal/common"
	"legalizador/internal/models"
	"legalizador/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	tokenIssuer   = "legalizador-auth"
	tokenAudience = "legalizador-api"
)

// AuthService issues and validates access tokens and rotates refresh tokens.
type AuthService interface {
	GenerateTokens(ctx context.Context, user *models.User) (*models.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	RevokeRefreshToken(ctx context.Context, refreshToken string) error
}

type authService struct {
	cacheSvc   caching.CacheService
	userRepo   repositories.UserRepository
	logger     *zap.Logger
	jwtSecret  []byte
	tokenTTL   time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenClaims represents JWT claims
type TokenClaims struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	TokenID string `json:"token_id"`
	jwt.RegisteredClaims
}

// NewAuthService creates a new authentication service
func NewAuthService(cacheSvc caching.CacheService, userRepo repositories.UserRepository, logger *zap.Logger, jwtSecret string, tokenTTL, refreshTTL time.Duration) AuthService {
	return &authService{
		cacheSvc:   cacheSvc,
		userRepo:   userRepo,
		logger:     logger,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// GenerateTokens generates access and refresh tokens for a user
func (s *authService) GenerateTokens(ctx context.Context, user *models.User) (*models.TokenResponse, error) {
	now := s.now()
	tokenID := uuid.NewString()

	claims := TokenClaims{
		UserID:  user.ID,
		Email:   user.Email,
		Role:    user.Role,
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("%d", user.ID),
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessTokenString, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	// The refresh token is "<id>.<secret>"; only the secret hash is stored.
	refreshID := uuid.NewString()
	secret, err := generateSecureToken()
	if err != nil {
		return nil, err
	}
	record := &models.RefreshToken{
		ID:        refreshID,
		UserID:    user.ID,
		TokenHash: hashToken(secret),
		ExpiresAt: now.Add(s.refreshTTL),
		IssuedAt:  now,
	}
	if err := s.cacheSvc.SetRefreshToken(ctx, record, s.refreshTTL); err != nil {
		// The access token is still usable without refresh.
		s.logger.Warn("Failed to store refresh token", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	return &models.TokenResponse{
		AccessToken:  accessTokenString,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenTTL.Seconds()),
		RefreshToken: refreshID + "." + secret,
		UserID:       models.ID(user.ID),
		Role:         user.Role,
		TokenID:      tokenID,
		IssuedAt:     now,
	}, nil
}

// RefreshToken consumes a refresh token and issues a new pair for the
// current state of the user.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	refreshID, secret, ok := strings.Cut(refreshToken, ".")
	if !ok || refreshID == "" || secret == "" {
		return nil, common.Unauthorized("Token de actualización inválido")
	}

	record, err := s.cacheSvc.GetRefreshToken(ctx, refreshID)
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if record == nil || record.TokenHash != hashToken(secret) {
		return nil, common.Unauthorized("Token de actualización inválido")
	}
	if s.now().After(record.ExpiresAt) {
		_ = s.cacheSvc.DeleteRefreshToken(ctx, refreshID)
		return nil, common.Unauthorized("Token de actualización expirado")
	}

	user, err := s.userRepo.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Unauthorized("Token de actualización inválido")
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, common.Forbidden("El usuario está inactivo. Contacte al administrador.")
	}

	if err := s.cacheSvc.DeleteRefreshToken(ctx, refreshID); err != nil {
		s.logger.Warn("Failed to delete rotated refresh token", zap.String("token_id", refreshID), zap.Error(err))
	}
	return s.GenerateTokens(ctx, user)
}

// ValidateToken validates JWT access token
func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	jwtToken, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithAudience(tokenAudience))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if claims, ok := jwtToken.Claims.(*TokenClaims); ok && jwtToken.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token claims")
}

func (s *authService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	refreshID, _, ok := strings.Cut(refreshToken, ".")
	if !ok {
		return common.Validation("Token de actualización inválido")
	}
	return s.cacheSvc.DeleteRefreshToken(ctx, refreshID)
}

func generateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
