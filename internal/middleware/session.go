package middleware

import (
	"minibank/internal/domain"     // Importing domain models
	"minibank/internal/repository" // User storage
	"minibank/internal/utils"      // Session token helpers
	"net/http"                     // HTTP status codes
	"time"                         // Cookie lifetime

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// SessionCookie is the name of the cookie holding the signed session token
const SessionCookie = "session"

const currentUserKey = "currentUser"

// SessionConfig controls how session cookies are signed and issued
type SessionConfig struct {
	Secret string        // HMAC key
	TTL    time.Duration // Cookie and token lifetime
	Secure bool          // Send only over HTTPS
}

// Session resolves the session cookie into the current user for this request.
// Missing, invalid or stale sessions leave the request anonymous.
func Session(cfg SessionConfig, repo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie) // Get the session token
		if err != nil || token == "" {
			c.Next() // Anonymous
			return
		}
		claims, err := utils.ParseSessionToken(token, cfg.Secret)
		if err != nil {
			ClearSession(c, cfg) // Expired or tampered, forget it
			c.Next()
			return
		}
		// Re-resolve on every request; the token is a lookup key, not a live handle
		user, err := repo.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":    claims.UserID,
				"request_id": c.GetString(RequestIDKey),
				"error":      err.Error(),
			}).Error("Failed to resolve session")
			c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Title": "Error", "Message": "Something went wrong. Please try again later."})
			c.Abort()
			return
		}
		if user == nil {
			ClearSession(c, cfg) // User no longer exists
			c.Next()
			return
		}
		c.Set(currentUserKey, user) // Request-scoped, never shared
		c.Next()
	}
}

// RequireUser redirects anonymous requests to the login page
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user resolved by Session, if any
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}

// StartSession issues a signed session cookie for userID
func StartSession(c *gin.Context, cfg SessionConfig, userID uint) error {
	token, err := utils.GenerateSessionToken(userID, cfg.Secret, cfg.TTL)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
	return nil
}

// ClearSession expires the session cookie
func ClearSession(c *gin.Context, cfg SessionConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", cfg.Secure, true)
}
