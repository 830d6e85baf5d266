package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"distillation_monitor/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = time.Hour

// Domain errors for auth flows.
var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrOperatorNotFound = errors.New("operator not found")
	ErrInvalidToken     = errors.New("invalid token")
)

// AuthService registers operators and issues the bearer tokens required by
// the control endpoints.
type AuthService struct {
	operators  repository.Operators
	signingKey []byte
	tokenTTL   time.Duration
	now        func() time.Time
}

// NewAuthService returns an auth service. An empty signingKey is replaced
// by a random per-process key, so tokens do not survive a restart.
func NewAuthService(repo repository.Operators, signingKey string, ttl time.Duration) *AuthService {
	key := []byte(signingKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{operators: repo, signingKey: key, tokenTTL: ttl, now: time.Now}
}

// SignUp hashes password and creates a new operator. A taken username
// yields repository.ErrOperatorExists.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (int, error) {
	if strings.TrimSpace(username) == "" {
		return 0, errors.New("username is empty")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("invalid password: %w", err)
	}
	return s.operators.Create(ctx, username, hash)
}

// Claims defines JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	OperatorID int `json:"operator_id"`
}

// GenerateToken validates credentials, stamps the operator's sign-in time
// and returns a signed JWT.
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	op, err := s.operators.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if op == nil {
		return "", ErrOperatorNotFound
	}
	if err := verifyPassword(op.PasswordHash, password); err != nil {
		return "", ErrInvalidPassword
	}
	if err := s.operators.RecordSignIn(ctx, op.ID, s.now()); err != nil {
		return "", err
	}
	return s.issueToken(op.ID)
}

// ParseToken validates a JWT and returns the operator id.
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}
	return claims.OperatorID, nil
}

func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) issueToken(operatorID int) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OperatorID: operatorID,
	})
	return token.SignedString(s.signingKey)
}
