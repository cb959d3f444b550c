package api

import (
	"errors"                       // Error inspection
	"minibank/internal/domain"     // Domain errors
	"minibank/internal/flash"      // Flash messages
	"minibank/internal/middleware" // Request ids
	"net/http"                     // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Form errors that never reach the service
var (
	errMissingCredentials = errors.New("username and password are required")
	errUsernameTooLong    = errors.New("username too long")
)

// Result is what a form handler decided: where to go next and what to tell the user
type Result struct {
	Kind     flash.Kind // Success or error styling
	Message  string     // Shown once on the next page
	Redirect string     // Next page
	Err      error      // Cause of a failed result
}

// Ok is a successful result
func Ok(redirect, message string) Result {
	return Result{Kind: flash.KindSuccess, Message: message, Redirect: redirect}
}

// Fail turns err into a user-facing result
func Fail(redirect string, err error) Result {
	return Result{Kind: flash.KindError, Message: userMessage(err), Redirect: redirect, Err: err}
}

// userMessage maps known errors to the text shown to the user
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateUsername):
		return "Username already exists. Please choose another."
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid credentials. Please try again." // Same text for unknown user and wrong password
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "Insufficient balance."
	case errors.Is(err, domain.ErrInvalidAmount):
		return "Please enter a positive amount with at most two decimals."
	case errors.Is(err, domain.ErrPasswordTooLong):
		return "Password must be at most 72 bytes."
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "Please log in to continue."
	case errors.Is(err, errMissingCredentials):
		return "Username and password are required."
	case errors.Is(err, errUsernameTooLong):
		return "Username must be at most 100 characters."
	default:
		return "Something went wrong. Please try again later."
	}
}

// recoverable reports whether err becomes a flash instead of an error page
func recoverable(err error) bool {
	return errors.Is(err, domain.ErrDuplicateUsername) ||
		errors.Is(err, domain.ErrInvalidCredentials) ||
		errors.Is(err, domain.ErrInsufficientBalance) ||
		errors.Is(err, domain.ErrInvalidAmount) ||
		errors.Is(err, domain.ErrPasswordTooLong) ||
		errors.Is(err, domain.ErrNotAuthenticated) ||
		errors.Is(err, errMissingCredentials) ||
		errors.Is(err, errUsernameTooLong)
}

// respond renders res: a flash plus a redirect, or a 500 page for storage
// and unexpected failures
func respond(c *gin.Context, flashes flash.Store, res Result) {
	if res.Err != nil && !recoverable(res.Err) {
		renderError(c, res.Err)
		return
	}
	if err := flashes.Put(c, flash.Flash{Kind: res.Kind, Message: res.Message}); err != nil {
		// The redirect still goes out, only the message is lost
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey),
			"error":      err.Error(),
		}).Warn("Failed to store flash message")
	}
	c.Redirect(http.StatusSeeOther, res.Redirect)
}

// renderError logs err and shows the generic error page
func renderError(c *gin.Context, err error) {
	logrus.WithFields(logrus.Fields{
		"request_id": c.GetString(middleware.RequestIDKey),
		"storage":    domain.IsStorageError(err),
		"error":      err.Error(),
	}).Error("Request failed")
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{
		"Title":   "Error",
		"Message": "Something went wrong. Please try again later.",
	})
}

// popFlash reads the pending flash, treating a store failure as no flash
func popFlash(c *gin.Context, flashes flash.Store) *flash.Flash {
	f, err := flashes.Pop(c)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey),
			"error":      err.Error(),
		}).Warn("Failed to read flash message")
		return nil
	}
	return f
}
