package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims holds the JWT token payload.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"typ"` // "wizard" or "operator"
}

const (
	tokenTypeWizard   = "wizard"
	tokenTypeOperator = "operator"

	// RoleOperator may use the operator quote and watch endpoints.
	RoleOperator = "operator"

	issuer = "paginaventa"
)

// ErrInvalidToken is returned when a JWT cannot be parsed, has expired or
// is of the wrong type.
var ErrInvalidToken = errors.New("auth: invalid or expired token") //nolint:gochecknoglobals // sentinel error

// IssueWizardToken creates the token a browser tab uses to address its
// wizard session.
func IssueWizardToken(secret string, sessionID uuid.UUID, ttl time.Duration) (string, error) {
	return issueToken(secret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: sessionID.String()},
		SessionID:        sessionID.String(),
		TokenType:        tokenTypeWizard,
	}, ttl)
}

// IssueOperatorToken creates a token for a sales operator.
func IssueOperatorToken(secret, subject string, ttl time.Duration) (string, error) {
	return issueToken(secret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Role:             RoleOperator,
		TokenType:        tokenTypeOperator,
	}, ttl)
}

func issueToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.Issuer = issuer

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth.issueToken: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates a JWT token string. Returns the embedded claims.
func ValidateToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	if !token.Valid {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	return claims, nil
}

// ValidateWizardToken returns the wizard session id carried by a wizard token.
func ValidateWizardToken(secret, tokenString string) (uuid.UUID, error) {
	claims, err := ValidateToken(secret, tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	if claims.TokenType != tokenTypeWizard {
		return uuid.Nil, fmt.Errorf("auth.ValidateWizardToken: %w", ErrInvalidToken)
	}

	id, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("auth.ValidateWizardToken: %w", ErrInvalidToken)
	}
	return id, nil
}

// ValidateOperatorToken accepts only operator tokens with the operator role.
func ValidateOperatorToken(secret, tokenString string) (*Claims, error) {
	claims, err := ValidateToken(secret, tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeOperator || claims.Role != RoleOperator {
		return nil, fmt.Errorf("auth.ValidateOperatorToken: %w", ErrInvalidToken)
	}
	return claims, nil
}
