// Package middleware provides the gin middleware of the FormX HTTP API.
package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/formx360/formx/internal/apperr"
)

const callerKey = "formx.caller"

// Claims represents the JWT claims FormX issues and accepts.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

var (
	errMissingHeader = errors.New("Missing Authorization header")
	errHeaderFormat  = errors.New("Invalid Authorization header format")
	errInvalidToken  = errors.New("Invalid or expired token")
)

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an Authenticator for the shared secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// IssueToken signs a token for userID that expires after ttl.
func (a *Authenticator) IssueToken(userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Required rejects requests without a valid bearer token.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.fromHeader(c.GetHeader("Authorization"))
		if err != nil {
			appErr := apperr.Unauthorized(err.Error())
			c.AbortWithStatusJSON(appErr.HTTPStatus(), gin.H{"error": appErr.Message})
			return
		}
		c.Set(callerKey, claims.UserID)
		c.Next()
	}
}

// Optional records the caller when a valid token is present and lets every request through.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := a.fromHeader(c.GetHeader("Authorization")); err == nil {
			c.Set(callerKey, claims.UserID)
		}
		c.Next()
	}
}

func (a *Authenticator) fromHeader(header string) (*Claims, error) {
	if header == "" {
		return nil, errMissingHeader
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errHeaderFormat
	}
	return a.Verify(strings.TrimSpace(parts[1]))
}

// Verify parses and checks a token string.
func (a *Authenticator) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

// CallerID returns the authenticated user id, empty when the request is anonymous.
func CallerID(c *gin.Context) string {
	return c.GetString(callerKey)
}
