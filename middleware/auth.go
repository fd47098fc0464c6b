// api/middleware/auth.go

package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	taskhub_errors "github.com/dev-mohitbeniwal/taskhub/api/errors"
	logger "github.com/dev-mohitbeniwal/taskhub/api/logging"
	"github.com/dev-mohitbeniwal/taskhub/api/model"
)

// PrincipalKey is the gin context key holding the authenticated model.Principal.
const PrincipalKey = "principal"

// PrincipalLoader resolves a token subject to a principal. It returns
// ErrUserNotFound for unknown subjects.
type PrincipalLoader interface {
	GetPrincipal(ctx context.Context, userID model.ID) (*model.Principal, error)
}

type Authenticator struct {
	secret []byte
	issuer string
	loader PrincipalLoader
}

func NewAuthenticator(secret []byte, issuer string, loader PrincipalLoader) *Authenticator {
	return &Authenticator{secret: secret, issuer: issuer, loader: loader}
}

// Authenticate verifies an HS256 bearer token and stores the principal named
// by its subject under PrincipalKey.
func (a *Authenticator) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			logger.Warn("No bearer token provided", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		subject, err := a.verify(tokenString)
		if err != nil {
			logger.Warn("Rejected bearer token", zap.Error(err), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		principal, err := a.loader.GetPrincipal(c.Request.Context(), model.ID(subject))
		if err != nil {
			if errors.Is(err, taskhub_errors.ErrUserNotFound) {
				logger.Warn("Token subject is not a known user", zap.String("sub", subject))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			logger.Error("Failed to load principal", zap.Error(err), zap.String("sub", subject))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load principal"})
			return
		}

		c.Set(PrincipalKey, *principal)
		c.Next()
	}
}

func (a *Authenticator) verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", taskhub_errors.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", taskhub_errors.ErrUnauthorized)
	}
	return claims.Subject, nil
}

// SignToken issues an HS256 token for userID valid for ttl.
func SignToken(secret []byte, issuer string, userID model.ID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   string(userID),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// PrincipalFromContext returns the principal set by Authenticate.
func PrincipalFromContext(c *gin.Context) (model.Principal, bool) {
	v, exists := c.Get(PrincipalKey)
	if !exists {
		return model.Principal{}, false
	}
	switch p := v.(type) {
	case model.Principal:
		return p, true
	case *model.Principal:
		if p == nil {
			return model.Principal{}, false
		}
		return *p, true
	default:
		return model.Principal{}, false
	}
}
