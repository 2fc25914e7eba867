package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin = "admin"
	issuer    = "pxfc-auction"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrForbidden          = errors.New("insufficient privileges")
)

// Claims is the JWT payload issued to admins.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Config holds admin credentials and token settings.
type Config struct {
	Secret   string
	Username string
	Password string
	TokenTTL time.Duration
}

// Service issues and verifies admin tokens.
type Service struct {
	secret       []byte
	username     string
	passwordHash []byte
	ttl          time.Duration
	clock        clockwork.Clock
}

// NewService hashes the configured admin password with bcrypt.
func NewService(cfg Config, clock clockwork.Clock) (*Service, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("admin username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 2 * time.Hour
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		secret:       []byte(cfg.Secret),
		username:     cfg.Username,
		passwordHash: hash,
		ttl:          cfg.TokenTTL,
		clock:        clock,
	}, nil
}

// Login checks credentials and returns a signed token with its expiry.
func (s *Service) Login(username, password string) (string, time.Time, error) {
	userOK := username == s.username
	// bcrypt runs even for an unknown username.
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		Username: username,
		Role:     RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Verify parses and validates a token string.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

type claimsKey struct{}

// ClaimsFromContext returns the claims attached by RequireAdmin.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok
}

// RequireAdmin rejects requests without a valid admin bearer token.
func (s *Service) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			respondAuthError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", ErrInvalidToken)
			return
		}

		claims, err := s.Verify(parts[1])
		if err != nil {
			respondAuthError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token", err)
			return
		}
		if claims.Role != RoleAdmin {
			respondAuthError(w, r, http.StatusForbidden, "FORBIDDEN", "admin access required", ErrForbidden)
			return
		}

		log.Debug().Str("admin", claims.Username).Str("path", r.URL.Path).Msg("admin request authorized")
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}
