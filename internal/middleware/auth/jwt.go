package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthUser is the identity carried by a validated access token
type AuthUser struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Claims are the access token claims issued by the dashboard auth service
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type contextKey string

const (
	userContextKey contextKey = "authenticated_user"
)

// JWTConfig holds the configuration for JWT middleware
type JWTConfig struct {
	Secret    string
	Issuer    string // optional; checked when set
	Logger    *zap.Logger
	SkipPaths []string // Paths to skip JWT validation
}

// JWTMiddleware validates HMAC-signed bearer tokens and stores the AuthUser in the request context
func JWTMiddleware(config JWTConfig) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, skipPath := range config.SkipPaths {
				if strings.HasPrefix(path, skipPath) {
					return next(c)
				}
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				config.Logger.Warn("Missing authorization header",
					zap.String("path", path),
					zap.String("method", c.Request().Method))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false,
					"error":   "Authorization header required",
					"code":    "MISSING_AUTH_HEADER",
				})
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				config.Logger.Warn("Invalid authorization header format",
					zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false,
					"error":   "Invalid authorization header format. Expected: Bearer <token>",
					"code":    "INVALID_AUTH_FORMAT",
				})
			}

			claims := &Claims{}
			token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(config.Secret), nil
			})
			if err != nil || !token.Valid {
				config.Logger.Warn("JWT validation failed",
					zap.Error(err),
					zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false,
					"error":   "Invalid or expired token",
					"code":    "INVALID_TOKEN",
				})
			}

			if claims.Subject == "" {
				config.Logger.Warn("Token without subject", zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false,
					"error":   "Invalid token claims",
					"code":    "INVALID_CLAIMS",
				})
			}

			authUser := &AuthUser{
				UserID:   claims.Subject,
				Username: claims.Username,
				Email:    claims.Email,
				Role:     claims.Role,
			}

			ctx := context.WithValue(c.Request().Context(), userContextKey, authUser)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("user_id", authUser.UserID)

			config.Logger.Debug("User authenticated successfully",
				zap.String("user_id", authUser.UserID),
				zap.String("role", authUser.Role),
				zap.String("path", path))

			return next(c)
		}
	}
}

// RequireRole rejects authenticated users whose role is not one of roles (case-insensitive)
func RequireRole(logger *zap.Logger, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := GetUserFromContext(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false,
					"error":   "Authentication required",
					"code":    "AUTH_REQUIRED",
				})
			}

			for _, role := range roles {
				if strings.EqualFold(user.Role, role) {
					return next(c)
				}
			}

			logger.Warn("Role not permitted",
				zap.String("user_id", user.UserID),
				zap.String("role", user.Role),
				zap.Strings("required", roles),
				zap.String("path", c.Request().URL.Path))
			return c.JSON(http.StatusForbidden, echo.Map{
				"success": false,
				"error":   "Insufficient permissions",
				"code":    "FORBIDDEN",
			})
		}
	}
}

// GetUserFromContext extracts the authenticated user from the request context
func GetUserFromContext(c echo.Context) (*AuthUser, error) {
	user, ok := c.Request().Context().Value(userContextKey).(*AuthUser)
	if !ok || user == nil {
		return nil, fmt.Errorf("no authenticated user found in context")
	}
	return user, nil
}

// WithUser returns ctx carrying user. Used by callers that authenticate by other means.
func WithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
