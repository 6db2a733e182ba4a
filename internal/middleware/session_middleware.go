package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/decorhaus/storefront_api/internal/utils"
)

const authContextKey = "auth"

// AuthContext is the resolved identity of the caller.
type AuthContext struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// GetAuth returns the caller identity, or nil for anonymous requests.
func GetAuth(c *gin.Context) *AuthContext {
	v, ok := c.Get(authContextKey)
	if !ok {
		return nil
	}
	auth, _ := v.(*AuthContext)
	return auth
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// SessionMiddleware validates session tokens issued by the identity provider.
type SessionMiddleware struct {
	secret string
}

// NewSessionMiddleware constructs a SessionMiddleware.
func NewSessionMiddleware(secret string) *SessionMiddleware {
	return &SessionMiddleware{secret: secret}
}

// Required rejects requests without a valid session with 401.
func (m *SessionMiddleware) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			utils.Error(c, 401, "UNAUTHORIZED", "Missing or invalid authorization header")
			c.Abort()
			return
		}
		claims, err := utils.ValidateSessionToken(token, m.secret)
		if err != nil {
			utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired session")
			c.Abort()
			return
		}
		c.Set(authContextKey, &AuthContext{UserID: claims.UserID(), Email: claims.Email})
		c.Next()
	}
}

// Optional attaches the session when a valid one is present and otherwise lets
// the request through anonymously. A malformed token is still rejected.
func (m *SessionMiddleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := utils.ValidateSessionToken(token, m.secret)
		if err != nil {
			utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired session")
			c.Abort()
			return
		}
		c.Set(authContextKey, &AuthContext{UserID: claims.UserID(), Email: claims.Email})
		c.Next()
	}
}
