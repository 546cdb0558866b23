package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const tokenIssuer = "serverbot"

// AuthService manages JWT token generation and validation for the admin HTTP routes
type AuthService struct {
	secretKey   []byte
	tokenExpiry time.Duration
}

// CustomClaims represents the JWT claims structure
type CustomClaims struct {
	ClientName string `json:"client_name"`
	jwt.RegisteredClaims
}

// DefaultSecretKeyFile is where a generated secret is persisted
func DefaultSecretKeyFile() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		homeDir = os.TempDir()
	}
	return filepath.Join(homeDir, ".serverbot-secret-key")
}

// NewAuthService creates the service. With an empty secretKey the key is loaded from
// keyFile, or generated and persisted there.
func NewAuthService(secretKey string, tokenExpiry time.Duration, keyFile string, logger *zap.Logger) (*AuthService, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		var err error
		secretKey, err = loadOrCreateSecret(keyFile, logger)
		if err != nil {
			return nil, err
		}
	}

	// HMAC-SHA256 wants at least 32 bytes
	if len(secretKey) < 32 {
		return nil, errors.Newf("secret key is only %d bytes, need at least 32", len(secretKey))
	}

	if tokenExpiry == 0 {
		tokenExpiry = 90 * 24 * time.Hour // 90 days default
	}

	return &AuthService{
		secretKey:   []byte(secretKey),
		tokenExpiry: tokenExpiry,
	}, nil
}

func loadOrCreateSecret(keyFile string, logger *zap.Logger) (string, error) {
	if data, err := os.ReadFile(keyFile); err == nil && len(strings.TrimSpace(string(data))) > 0 {
		logger.Info("Loaded persisted secret key", zap.String("file", keyFile))
		return strings.TrimSpace(string(data)), nil
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "serverbot"
	}
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", errors.Wrap(err, "generate secret key")
	}
	secretKey := fmt.Sprintf("serverbot-%s-%s", hostname, hex.EncodeToString(randomBytes))

	if err := os.WriteFile(keyFile, []byte(secretKey), 0600); err != nil {
		logger.Warn("Could not persist secret key; tokens will not survive a restart",
			zap.String("file", keyFile), zap.Error(err))
	} else {
		logger.Info("Generated and persisted secret key", zap.String("file", keyFile))
	}
	return secretKey, nil
}

// GenerateToken creates a new JWT token for a named client
func (a *AuthService) GenerateToken(clientName string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(a.tokenExpiry)

	claims := CustomClaims{
		ClientName: clientName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ValidateToken verifies and parses a JWT token
func (a *AuthService) ValidateToken(tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secretKey, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
