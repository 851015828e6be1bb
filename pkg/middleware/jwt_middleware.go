package middleware

import (
	"strings"

	"carenest/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// JWTAuthMiddleware resolves the bearer token into a utils.Session for downstream handlers.
func JWTAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondUnauthenticated(c, "Authorization header missing or invalid")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateToken(secret, tokenString)
		if err != nil {
			utils.RespondUnauthenticated(c, "Invalid or expired token")
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			utils.RespondUnauthenticated(c, "Invalid or expired token")
			c.Abort()
			return
		}

		utils.SetSession(c, utils.Session{
			UserID:    userID,
			Email:     claims.Email,
			AuthToken: tokenString,
		})
		c.Next()
	}
}
