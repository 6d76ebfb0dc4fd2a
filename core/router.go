package core

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter constructs the Gin engine with routes wired.
func NewRouter(cfg Config, authService *AuthService, receiptService *ReceiptService, codec *TokenCodec) *gin.Engine {
	r := gin.Default()

	r.Use(CORSMiddleware(cfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", func(c *gin.Context) {
			var req struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}

			if err := authService.Register(c.Request.Context(), req.Username, req.Password); err != nil {
				var violation *PolicyViolation
				if errors.As(err, &violation) {
					respondError(c, http.StatusBadRequest, violation.Code, violation.Detail)
					return
				}
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to register user")
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "user registered"})
		})

		auth.POST("/login", func(c *gin.Context) {
			var req struct {
				Username   string `json:"username"`
				Password   string `json:"password"`
				RememberMe bool   `json:"remember_me"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}

			pair, err := authService.Login(c.Request.Context(), req.Username, req.Password, req.RememberMe)
			if err != nil {
				// Every login failure gets the same response on purpose.
				respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password")
				return
			}
			c.JSON(http.StatusOK, pair)
		})

		auth.GET("/me", RequireBearer(), func(c *gin.Context) {
			username, err := authService.WhoAmI(c.GetString(bearerTokenContextKey))
			if err != nil {
				respondTokenError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"username": username})
		})

		auth.POST("/refresh", RequireBearer(), func(c *gin.Context) {
			pair, err := authService.RefreshAccessToken(c.GetString(bearerTokenContextKey))
			if err != nil {
				respondTokenError(c, err)
				return
			}
			c.JSON(http.StatusOK, pair)
		})
	}

	receipts := api.Group("/receipts", RequireAccessToken(codec))
	{
		receipts.GET("", func(c *gin.Context) {
			claims := requestClaims(c)
			items, err := receiptService.List(c.Request.Context(), claims.Subject)
			if err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to list receipts")
				return
			}
			c.JSON(http.StatusOK, gin.H{"receipts": items})
		})

		receipts.POST("", func(c *gin.Context) {
			var req struct {
				Store string    `json:"store"`
				Total float64   `json:"total"`
				Date  time.Time `json:"date"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			if strings.TrimSpace(req.Store) == "" || req.Total < 0 || req.Date.IsZero() {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "store, total, date are required")
				return
			}

			claims := requestClaims(c)
			receipt, err := receiptService.Create(c.Request.Context(), claims.Subject, strings.TrimSpace(req.Store), req.Total, req.Date)
			if err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to create receipt")
				return
			}
			c.JSON(http.StatusOK, receipt)
		})
	}

	return r
}

// respondTokenError maps auth-service token failures onto the 403 responses
// of the protected endpoints.
func respondTokenError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTokenExpired):
		respondError(c, http.StatusForbidden, "TOKEN_EXPIRED", "This token has expired")
	case errors.Is(err, ErrWrongTokenType):
		respondError(c, http.StatusForbidden, "WRONG_TOKEN_TYPE", "wrong token type for this operation")
	default:
		respondError(c, http.StatusForbidden, "INVALID_TOKEN", "This token is invalid")
	}
}
