package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pocketledger/backend/internal/config"
	"github.com/pocketledger/backend/internal/models"
	"github.com/rs/zerolog"
)

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required" example:"+525512345678"`     // User phone number
	Password string `json:"password" validate:"required,min=6" example:"secret1"` // User password
}

// AuthResponse represents the authentication response
// @Description Authentication response structure
type AuthResponse struct {
	AccessToken string      `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType   string      `json:"token_type" example:"bearer"`
	ExpiresIn   int64       `json:"expires_in" example:"3600"` // Seconds
	User        models.User `json:"user"`
}

// AuthService issues and verifies bearer tokens. Redis, when present, backs the logout
// blacklist and the failed-login lockout; a nil client disables both.
type AuthService struct {
	users  *UserService
	hasher *PasswordHasher
	redis  *redis.Client
	jwt    config.JWTConfig
	limits config.AuthConfig
	logger zerolog.Logger
	now    func() time.Time
}

func NewAuthService(users *UserService, hasher *PasswordHasher, redisClient *redis.Client,
	jwtCfg config.JWTConfig, limits config.AuthConfig, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		redis:  redisClient,
		jwt:    jwtCfg,
		limits: limits,
		logger: logger,
		now:    time.Now,
	}
}

// Login checks phone and password and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, phone, password string) (*AuthResponse, error) {
	if err := s.checkLockout(ctx, phone); err != nil {
		return nil, err
	}

	user, hashedPassword, err := s.users.credentialsByPhone(ctx, phone)
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		s.recordFailedLogin(ctx, phone)
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(password, hashedPassword) {
		s.logger.Warn().Str("event", "login_failed").Int64("user_id", user.ID).Msg("Invalid password")
		s.recordFailedLogin(ctx, phone)
		return nil, ErrUnauthorized
	}

	s.clearFailedLogins(ctx, phone)

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info().Str("event", "login").Int64("user_id", user.ID).Msg("Login successful")
	return &AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.jwt.Expiry.Seconds()),
		User:        *user,
	}, nil
}

// IssueToken signs an HS256 token whose subject is the user id.
func (s *AuthService) IssueToken(userID int64) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.jwt.Expiry)),
	})
	return token.SignedString([]byte(s.jwt.SecretKey))
}

// VerifyToken returns the user id of a valid, unrevoked token.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (int64, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return 0, err
	}

	if s.redis != nil {
		revoked, err := s.redis.Exists(ctx, blacklistKey(tokenString)).Result()
		if err != nil {
			// Fail closed: a revoked token must not slip through while Redis is flaky.
			s.logger.Error().Err(err).Str("event", "blacklist_check_failed").Msg("Token blacklist lookup failed")
			return 0, ErrUnauthorized
		}
		if revoked > 0 {
			return 0, ErrUnauthorized
		}
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrUnauthorized
	}
	return userID, nil
}

// Logout blacklists the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}
	if s.redis == nil {
		return nil
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, blacklistKey(tokenString), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	s.logger.Info().Str("event", "logout").Str("user_id", claims.Subject).Msg("Token revoked")
	return nil
}

func (s *AuthService) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(s.jwt.SecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func (s *AuthService) checkLockout(ctx context.Context, phone string) error {
	if s.redis == nil {
		return nil
	}
	count, err := s.redis.Get(ctx, loginAttemptsKey(phone)).Int()
	if err != nil && err != redis.Nil {
		s.logger.Warn().Err(err).Str("event", "login_throttle_unavailable").Msg("Login attempt counter unavailable")
		return nil
	}
	if count >= s.limits.MaxLoginAttempts {
		s.logger.Warn().Str("event", "login_locked").Msg("Too many failed logins")
		return ErrUnauthorized
	}
	return nil
}

func (s *AuthService) recordFailedLogin(ctx context.Context, phone string) {
	if s.redis == nil {
		return
	}
	key := loginAttemptsKey(phone)
	pipe := s.redis.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.limits.LockoutWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn().Err(err).Str("event", "login_throttle_unavailable").Msg("Failed to count login attempt")
	}
}

func (s *AuthService) clearFailedLogins(ctx context.Context, phone string) {
	if s.redis == nil {
		return
	}
	s.redis.Del(ctx, loginAttemptsKey(phone))
}

func blacklistKey(token string) string {
	return fmt.Sprintf("blacklist:%s", token)
}

func loginAttemptsKey(phone string) string {
	return fmt.Sprintf("login:attempts:%s", phone)
}
