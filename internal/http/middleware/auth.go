package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/chaptered/core/internal/pkg/allowlist"
	"github.com/chaptered/core/internal/pkg/ctxutil"
	"github.com/chaptered/core/internal/pkg/logger"
)

// jwtClaims is the subset of the identity provider's token this core understands. The
// service never issues tokens; an external identity provider does. It only parses and
// verifies one.
type jwtClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies the bearer token's signature and checks its email claim against
// the verified-email allowlist. It never logs the raw token.
type AuthMiddleware struct {
	log       *logger.Logger
	jwtSecret string
	allowed   *allowlist.Allowlist
}

func NewAuthMiddleware(log *logger.Logger, jwtSecret string, allowed *allowlist.Allowlist) *AuthMiddleware {
	return &AuthMiddleware{
		log:       log.With("middleware", "AuthMiddleware"),
		jwtSecret: jwtSecret,
		allowed:   allowed,
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			am.log.Warn("missing bearer token", "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}

		parsed, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(am.jwtSecret), nil
		})
		if err != nil || !parsed.Valid {
			// Never log tokenString: authentication failures must not leak the token.
			am.log.Warn("token verification failed", "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "invalid or expired token", "code": "unauthorized"},
			})
			return
		}
		claims, ok := parsed.Claims.(*jwtClaims)
		if !ok || strings.TrimSpace(claims.Email) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "token missing email claim", "code": "unauthorized"},
			})
			return
		}
		if !am.allowed.IsVerified(claims.Email) {
			am.log.Warn("email not in verified allowlist", "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "email not verified", "code": "unauthorized"},
			})
			return
		}

		ctx := ctxutil.WithAuthData(c.Request.Context(), &ctxutil.AuthData{Email: claims.Email})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
