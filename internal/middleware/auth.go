package middleware

import (
	"net/http"
	"strings"

	"jmsmp/config"
	"jmsmp/internal/auth"
	"jmsmp/internal/domain"
	"jmsmp/internal/models"
	"jmsmp/internal/repository"

	"github.com/gin-gonic/gin"
)

const userKey = "current_user"

// AuthRequired validates the bearer token and resolves the stored user so
// role and application-status changes take effect on the next request.
func AuthRequired(cfg *config.JWTConfig, users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Токен доступа отсутствует"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Недействительный токен"})
			return
		}
		claims, err := auth.ParseToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Недействительный токен"})
			return
		}
		u, err := users.GetByUsername(claims.Username)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Пользователь не найден"})
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

// RequireRole checks that the authenticated user's role is in the
// allow-list of the given operation. No role hierarchy is implied.
func RequireRole(op string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := GetUser(c)
		if u == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Требуется аутентификация"})
			return
		}
		if !domain.Allowed(op, u.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Недостаточно прав"})
			return
		}
		c.Next()
	}
}

// RequireApproved gates endpoints that need an accepted membership application.
func RequireApproved() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := GetUser(c)
		if u == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Требуется аутентификация"})
			return
		}
		if !u.IsApproved() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Анкета не одобрена"})
			return
		}
		c.Next()
	}
}

// GetUser returns the resolved user (must be used after AuthRequired).
func GetUser(c *gin.Context) *models.User {
	v, _ := c.Get(userKey)
	if v == nil {
		return nil
	}
	return v.(*models.User)
}
