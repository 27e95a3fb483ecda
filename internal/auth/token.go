package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is the fixed lifetime of an access token. Tokens are stateless:
// there is no revocation list and no renewal, so a leaked token stays
// valid until this expires.
const TokenTTL = 24 * time.Hour

// ErrInvalidToken is the only token error callers should match on. The
// specific rejection reasons below wrap it so diagnostics can tell them
// apart without the HTTP surface leaking which check failed.
var (
	ErrInvalidToken = errors.New("invalid token")

	ErrTokenMalformed   = fmt.Errorf("%w: malformed structure", ErrInvalidToken)
	ErrSignatureInvalid = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrTokenExpired     = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrMissingClaim     = fmt.Errorf("%w: missing user claim", ErrInvalidToken)
)

// TokenClaims are the contents of a signed token.
type TokenClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HMAC-signed bearer tokens. The secret
// is fixed for the life of the process.
type TokenManager struct {
	secretKey []byte
}

// NewTokenManager creates a TokenManager. An empty secret is a startup
// error, never a runtime fallback.
func NewTokenManager(secretKey string) (*TokenManager, error) {
	if secretKey == "" {
		return nil, errors.New("token signing secret must not be empty")
	}
	return &TokenManager{secretKey: []byte(secretKey)}, nil
}

// Issue creates a signed token for the given user id, expiring TokenTTL
// from now.
func (tm *TokenManager) Issue(userID int64) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secretKey)
}

// Validate parses the token, checks the signature against the current
// secret and the expiry against the server clock, and returns the embedded
// user id. There is no grace window for clock skew.
func (tm *TokenManager) Validate(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return tm.secretKey, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, ErrTokenExpired
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return 0, ErrSignatureInvalid
		default:
			return 0, ErrTokenMalformed
		}
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return 0, ErrTokenMalformed
	}
	if claims.UserID <= 0 {
		return 0, ErrMissingClaim
	}

	return claims.UserID, nil
}
