package core

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const claimsContextKey = "claims"
const bearerTokenContextKey = "bearer_token"

// CORSMiddleware validates Origin/Referer against the allowed list and sets CORS headers.
func CORSMiddleware(cfg Config) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.ToLower(o)] = struct{}{}
	}

	isAllowed := func(origin string) bool {
		if origin == "" {
			// Same-origin navigation (no Origin header) is allowed.
			return true
		}
		if len(allowed) == 0 {
			return false
		}
		_, ok := allowed[strings.ToLower(origin)]
		return ok
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		referer := c.GetHeader("Referer")
		if origin == "" && referer != "" {
			if u, err := url.Parse(referer); err == nil {
				origin = u.Scheme + "://" + u.Host
			}
		}

		// Preflight handling
		if c.Request.Method == http.MethodOptions && origin != "" {
			if !isAllowed(origin) {
				respondError(c, http.StatusForbidden, "FORBIDDEN", "origin not allowed")
				c.Abort()
				return
			}
			setCORSHeaders(c, origin)
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		if !isAllowed(origin) {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "origin not allowed")
			c.Abort()
			return
		}
		if origin != "" {
			setCORSHeaders(c, origin)
		}
		c.Next()
	}
}

func setCORSHeaders(c *gin.Context, origin string) {
	c.Header("Access-Control-Allow-Origin", origin)
	c.Header("Vary", "Origin")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
}

// BearerToken extracts the raw token from the Authorization header. It
// reports false when the header is missing or does not carry the Bearer scheme.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// RequireBearer rejects requests without a bearer token before any handler
// runs. The token is extracted but not yet verified; handlers pass it to the
// auth service, which decides which token type the operation requires.
func RequireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			respondError(c, http.StatusForbidden, "TOKEN_REQUIRED", "Token required")
			c.Abort()
			return
		}
		c.Set(bearerTokenContextKey, token)
		c.Next()
	}
}

// RequireAccessToken verifies the bearer token as an access token and stores
// its claims for the handler.
func RequireAccessToken(codec *TokenCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			respondError(c, http.StatusForbidden, "TOKEN_REQUIRED", "Token required")
			c.Abort()
			return
		}
		claims, err := codec.Verify(token)
		if err != nil {
			respondError(c, http.StatusForbidden, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}
		if claims.TokenType != TokenTypeAccess {
			respondError(c, http.StatusForbidden, "WRONG_TOKEN_TYPE", "access token required")
			c.Abort()
			return
		}
		c.Set(claimsContextKey, claims)
		c.Next()
	}
}
