// Package callbackauth authenticates the biometric vendor when it pushes
// verdicts: shared credentials exchange for a short-lived HS256 token, and
// the callback route requires that token plus an allowed source address.
package callbackauth

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"vinculacion/internal/platform/config"
	dErrors "vinculacion/pkg/domain-errors"
)

// Claims identifies the vendor account a callback token was issued to.
type Claims struct {
	jwt.RegisteredClaims
}

// Token is an issued bearer token.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
}

// Service issues and validates callback tokens.
type Service struct {
	username   string
	password   string
	signingKey []byte
	issuer     string
	ttl        time.Duration
	allowedIPs map[string]struct{}
	now        func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(cfg config.CallbackConfig, opts ...Option) *Service {
	s := &Service{
		username:   cfg.Username,
		password:   cfg.Password,
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		ttl:        cfg.TokenTTL,
		allowedIPs: make(map[string]struct{}, len(cfg.AllowedIPs)),
		now:        time.Now,
	}
	if s.ttl <= 0 {
		s.ttl = 300 * time.Second
	}
	for _, ip := range cfg.AllowedIPs {
		if ip = strings.TrimSpace(ip); ip != "" {
			s.allowedIPs[ip] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CanIssue reports whether credentials and a signing key are configured.
func (s *Service) CanIssue() bool {
	return s.username != "" && s.password != "" && len(s.signingKey) > 0
}

// CanVerify reports whether a signing key is configured.
func (s *Service) CanVerify() bool { return len(s.signingKey) > 0 }

// Issue exchanges the vendor's shared credentials for a token.
func (s *Service) Issue(username, password string) (*Token, error) {
	if !s.CanIssue() {
		return nil, dErrors.New(dErrors.CodeInternal, "webhook credentials not configured")
	}
	if username == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "Missing credentials")
	}
	if !s.checkCredentials(username, password) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Unauthorized")
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return &Token{AccessToken: signed, TokenType: "Bearer", ExpiresIn: s.ttl}, nil
}

// checkCredentials compares in constant time. A configured password that
// looks like a bcrypt hash is checked with bcrypt instead.
func (s *Service) checkCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	var passOK bool
	if strings.HasPrefix(s.password, "$2") {
		passOK = bcrypt.CompareHashAndPassword([]byte(s.password), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	}
	return userOK && passOK
}

// Validate checks the signature and expiry of a callback token.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	if !s.CanVerify() {
		return nil, dErrors.New(dErrors.CodeInternal, "webhook secret not configured")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// AllowIP reports whether ip may call the webhook. An empty allowlist allows all.
func (s *Service) AllowIP(ip string) bool {
	if len(s.allowedIPs) == 0 {
		return true
	}
	_, ok := s.allowedIPs[strings.TrimSpace(ip)]
	return ok
}
