package middleware

import (
	"context"
	"strings"

	"ourskilllab/internal/models"
	"ourskilllab/internal/utils"

	"github.com/gin-gonic/gin"
)

const principalKey = utils.ContextKeyPrincipal

// Authenticator turns a bearer token into the calling principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
}

// AuthRequired validates the bearer token and stores the principal on the
// request context.
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || tokenString == authHeader || tokenString == "" {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			utils.HandleServiceError(c, err)
			c.Abort()
			return
		}

		c.Set(principalKey, principal)
		c.Set(utils.ContextKeyUserID, principal.UserID)
		c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if principal == nil {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}
		if !principal.IsAdmin() {
			utils.ForbiddenResponse(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetPrincipal returns nil on unauthenticated routes.
func GetPrincipal(c *gin.Context) *models.Principal {
	value, exists := c.Get(principalKey)
	if !exists {
		return nil
	}
	principal, _ := value.(*models.Principal)
	return principal
}
