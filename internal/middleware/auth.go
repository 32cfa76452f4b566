package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coaching-site-backend/internal/apperr"
	"coaching-site-backend/internal/models"
)

const AdminIDKey = "admin_id"

// TokenVerifier checks a bearer token and returns the admin id it carries.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abortUnauthorized(c, "empty token")
			return
		}

		adminID, err := verifier.VerifyToken(tokenString)
		if err != nil {
			msg := "invalid token"
			if apperr.Is(err, apperr.KindAuth) {
				msg = apperr.PublicMessage(err)
			}
			abortUnauthorized(c, msg)
			return
		}

		c.Set(AdminIDKey, adminID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: msg})
}
