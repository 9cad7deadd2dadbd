package portalapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/healthfirst/portal/pkg/config"
	"github.com/healthfirst/portal/pkg/types"
)

// TokenIssuer signs and validates HS256 access tokens
type TokenIssuer struct {
	secret        []byte
	issuer        string
	accessTTL     time.Duration
	rememberMeTTL time.Duration
	now           func() time.Time
}

// NewTokenIssuer creates a token issuer from the JWT configuration
func NewTokenIssuer(cfg config.JWTConfig) *TokenIssuer {
	return &TokenIssuer{
		secret:        []byte(cfg.SecretKey),
		issuer:        cfg.Issuer,
		accessTTL:     time.Duration(cfg.AccessTokenTTL) * time.Second,
		rememberMeTTL: time.Duration(cfg.RememberMeTTL) * time.Second,
		now:           time.Now,
	}
}

// JWTClaims represents the access token claims
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs an access token for claims. Remember-me sessions get
// the longer configured lifetime.
func (ti *TokenIssuer) GenerateToken(claims types.UserClaims, rememberMe bool) (*types.AuthToken, error) {
	now := ti.now()
	ttl := ti.accessTTL
	if rememberMe && ti.rememberMeTTL > 0 {
		ttl = ti.rememberMeTTL
	}

	jwtClaims := &JWTClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    ti.issuer,
			Subject:   claims.UserID,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims).SignedString(ti.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &types.AuthToken{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl / time.Second),
		IssuedAt:    now,
	}, nil
}

// ValidateJWT validates a token and returns its claims
func (ti *TokenIssuer) ValidateJWT(tokenString string) (*types.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ti.secret, nil
	}, jwt.WithIssuer(ti.issuer), jwt.WithTimeFunc(ti.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return &types.UserClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   types.UserRole(claims.Role),
	}, nil
}
