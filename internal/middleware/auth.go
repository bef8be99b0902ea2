package middleware

import (
	"net/http"
	"strings"

	"employee-poll-backend/internal/config"
	"employee-poll-backend/internal/logging"
	"employee-poll-backend/internal/models"
	"employee-poll-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserKey      = "user"
)

func abort(c *gin.Context, status int, err, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Success: false, Error: err, Message: message})
}

// AuthMiddleware verifies the HS256 bearer token issued by the login service and stores the
// subject and email claims in the context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "missing authorization header", "")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, http.StatusUnauthorized, "invalid authorization header format", "")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, "empty token", "")
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if cfg.JWTSecret == "" {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			var message string
			switch {
			case strings.Contains(err.Error(), "signature is invalid"):
				message = "token signature is invalid"
			case strings.Contains(err.Error(), "token is expired"):
				message = "token has expired"
			default:
				message = err.Error()
			}
			abort(c, http.StatusUnauthorized, "invalid token", message)
			return
		}
		if !token.Valid {
			abort(c, http.StatusUnauthorized, "invalid token", "")
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			abort(c, http.StatusUnauthorized, "missing user id in token", "")
			return
		}
		userID, err := uuid.Parse(sub)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid user id in token", "")
			return
		}
		email, _ := claims["email"].(string)

		c.Set(UserIDKey, userID)
		c.Set(UserEmailKey, email)
		c.Next()
	}
}

// LoadUser provisions and attaches the caller's user record. It must run after AuthMiddleware.
func LoadUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := c.Get(UserIDKey)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthorized", "")
			return
		}
		email := c.GetString(UserEmailKey)
		if email == "" {
			abort(c, http.StatusUnauthorized, "missing email in token", "")
			return
		}

		user, err := users.EnsureUser(c.Request.Context(), userID.(uuid.UUID), email)
		if err != nil {
			logging.Log.WithError(err).Error("Failed to load user")
			abort(c, http.StatusInternalServerError, "failed to load user", "")
			return
		}
		c.Set(UserKey, user)
		c.Next()
	}
}

// AdminOnly rejects callers whose stored role is not admin.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsAdmin() {
			abort(c, http.StatusForbidden, "admin access required", "")
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}
