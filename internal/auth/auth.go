// Package auth issues and verifies the signed credentials that
// identify a caller for the duration of one request.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Header is the request header carrying the credential.
const Header = "x-auth-token"

var (
	ErrNoToken      = errors.New("no token, authorization denied")
	ErrInvalidToken = errors.New("token is not valid")
)

// Identity is the verified caller, reduced to a stable user id.
type Identity struct {
	UserID string
}

// Service signs and verifies HS256 tokens with an injected secret.
// The secret is fixed at construction; nothing here touches ambient
// state, so tests can run with a throwaway secret.
type Service struct {
	secret []byte
	ttl    time.Duration
}

func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl}
}

type claims struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	jwt.RegisteredClaims
}

// IssueToken signs a credential embedding the user id.
func (s *Service) IssueToken(userID string) (string, error) {
	var c claims
	c.User.ID = userID
	now := time.Now()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// Verify checks the credential and extracts the identity claim.
// An empty credential fails with ErrNoToken before any verification;
// anything malformed, tampered with, or expired fails with
// ErrInvalidToken.
func (s *Service) Verify(credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, ErrNoToken
	}
	var c claims
	_, err := jwt.ParseWithClaims(credential, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	if c.User.ID == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: c.User.ID}, nil
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
