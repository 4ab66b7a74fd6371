package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default credential lifetimes. Access tokens are bearer-presented per
// request; refresh tokens live in an HTTP-only cookie.
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// adminSubjectPrefix marks identities synthesized for the built-in
// administrator, which has no database row. Every flow that would look
// up an account branches on this prefix instead.
const adminSubjectPrefix = "admin_"

var (
	// ErrTokenExpired is returned when a token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for any signature or format failure.
	ErrTokenInvalid = errors.New("invalid token")
)

// Identity is the result of verifying a credential. BuiltIn is resolved
// once here, from the subject prefix, so callers never re-check it.
type Identity struct {
	Subject string
	Role    string
	BuiltIn bool
}

type accessClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Service issues and validates signed access and refresh credentials.
// Issuance and verification are pure computations; no I/O.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewService(accessSecret, refreshSecret string) *Service {
	return &Service{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		AccessTTL:     AccessTokenTTL,
		RefreshTTL:    RefreshTokenTTL,
	}
}

// NewAdminSubject synthesizes a fresh opaque identity for the built-in
// administrator: the marker prefix plus the issuance timestamp.
func (s *Service) NewAdminSubject() string {
	return fmt.Sprintf("%s%d", adminSubjectPrefix, time.Now().UnixMilli())
}

// IsAdminSubject reports whether subject identifies the built-in
// administrator.
func IsAdminSubject(subject string) bool {
	return strings.HasPrefix(subject, adminSubjectPrefix)
}

// IssueAccess mints a short-lived access token carrying subject and role.
// The role is frozen at issuance time.
func (s *Service) IssueAccess(subject, role string) (string, error) {
	now := time.Now()
	claims := accessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.AccessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.accessSecret)
}

// IssueRefresh mints a long-lived refresh token carrying the subject only.
func (s *Service) IssueRefresh(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.RefreshTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.refreshSecret)
}

// VerifyAccess validates an access token and returns the identity it
// carries. The error distinguishes expiry from all other invalidity.
func (s *Service) VerifyAccess(tokenString string) (Identity, error) {
	claims := accessClaims{}
	if err := s.parse(tokenString, &claims, s.accessSecret); err != nil {
		return Identity{}, err
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{
		Subject: subject,
		Role:    claims.Role,
		BuiltIn: IsAdminSubject(subject),
	}, nil
}

// VerifyRefresh validates a refresh token. The returned identity carries
// no role; for the built-in administrator the caller mints admin-scoped
// access tokens without any lookup, otherwise it reloads the stored role.
func (s *Service) VerifyRefresh(tokenString string) (Identity, error) {
	claims := jwt.RegisteredClaims{}
	if err := s.parse(tokenString, &claims, s.refreshSecret); err != nil {
		return Identity{}, err
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{
		Subject: subject,
		BuiltIn: IsAdminSubject(subject),
	}, nil
}

func (s *Service) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
