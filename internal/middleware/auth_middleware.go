package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/decorhaus/storefront_api/internal/utils"
)

// AdminChecker resolves back-office membership.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// AdminMiddleware gates back-office routes. It must run after SessionMiddleware.Required:
// no session yields 401, a session without admin membership yields 403.
type AdminMiddleware struct {
	checker AdminChecker
}

// NewAdminMiddleware constructs an AdminMiddleware.
func NewAdminMiddleware(checker AdminChecker) *AdminMiddleware {
	return &AdminMiddleware{checker: checker}
}

// Handle returns the gin handler.
func (m *AdminMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := GetAuth(c)
		if auth == nil {
			utils.Error(c, 401, "UNAUTHORIZED", "Authentication required")
			c.Abort()
			return
		}
		ok, err := m.checker.IsAdmin(c.Request.Context(), auth.UserID)
		if err != nil {
			log.Error().Err(err).Str("user_id", auth.UserID).Msg("Admin membership lookup failed")
			utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
			c.Abort()
			return
		}
		if !ok {
			utils.Error(c, 403, "FORBIDDEN", "Admin access required")
			c.Abort()
			return
		}
		auth.IsAdmin = true
		c.Next()
	}
}
