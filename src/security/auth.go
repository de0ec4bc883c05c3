package security

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

const bcryptCost = 12

// ErrAuthFailed is returned when the operator credential does not match.
// Sign-in failure is fatal for LIVE imports; no partial processing runs.
var ErrAuthFailed = errors.New("authentication failed")

// AuthService verifies the operator credential and mints the session
// token that store writes carry as provenance.
type AuthService struct {
	JWTSecret     string
	SessionExpiry time.Duration
}

func NewAuthService(secret string, expiry time.Duration) *AuthService {
	return &AuthService{JWTSecret: secret, SessionExpiry: expiry}
}

func (a *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (a *AuthService) CompareHashAndPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// SignIn performs the once-per-run authentication handshake required for
// LIVE mode. The password comes from the environment when provided and
// is prompted for otherwise; it is compared against the bcrypt hash from
// configuration, never against an embedded secret.
func (a *AuthService) SignIn(operator, envPassword, adminHash string) (string, error) {
	if adminHash == "" {
		return "", fmt.Errorf("%w: LEDGER_ADMIN_HASH is not configured", ErrAuthFailed)
	}

	password := envPassword
	if password == "" {
		fmt.Fprint(os.Stderr, "Ledger password: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("%w: reading password: %v", ErrAuthFailed, err)
		}
		password = string(raw)
	}

	if err := a.CompareHashAndPassword(adminHash, password); err != nil {
		return "", ErrAuthFailed
	}
	return a.GenerateToken(operator)
}

// GenerateToken mints the short-lived session JWT identifying the
// operator for the duration of the batch.
func (a *AuthService) GenerateToken(operator string) (string, error) {
	claims := jwt.MapClaims{
		"sub": operator,
		"exp": time.Now().Add(a.SessionExpiry).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.JWTSecret))
}

// ValidateToken checks the session token and returns the operator name.
func (a *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.JWTSecret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid session token")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("session token missing subject")
	}
	return sub, nil
}
