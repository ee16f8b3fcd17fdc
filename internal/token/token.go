package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature,
// malformed payload, or elapsed expiry. Callers must not learn which.
var ErrInvalidToken = errors.New("invalid token")

// Config carries the signing material for a Service. Rotating Secret
// invalidates all outstanding tokens (accepted limitation).
type Config struct {
	Secret []byte
	TTL    time.Duration
}

// Service issues and verifies signed bearer tokens. Tokens are stateless:
// there is no revocation list, they expire by time alone.
type Service struct {
	cfg Config
}

type claims struct {
	jwt.RegisteredClaims
}

func NewService(cfg Config) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("token secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	return &Service{cfg: cfg}, nil
}

// Issue produces a signed token embedding the user id with the configured expiry.
func (s *Service) Issue(userID int64) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
	})

	signed, err := tok.SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the user id a token was issued for, or ErrInvalidToken.
// It never panics on malformed input.
func (s *Service) Verify(tokenString string) (int64, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method == nil || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.cfg.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	c, ok := parsed.Claims.(*claims)
	if !ok {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
