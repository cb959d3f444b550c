package api

import (
	"minibank/internal/flash"      // Flash messages
	"minibank/internal/middleware" // Session cookies
	"minibank/internal/service"    // Banking operations
	"net/http"                     // HTTP status codes
	"unicode/utf8"                 // Username length

	"github.com/gin-gonic/gin"         // Gin web framework
	"github.com/gin-gonic/gin/binding" // Form binding
)

// maxUsernameLength matches the width of the username column
const maxUsernameLength = 100

// CredentialsForm is the body of the signup and login forms
type CredentialsForm struct {
	Username string `form:"username" binding:"required"` // Username must be provided
	Password string `form:"password" binding:"required"` // Password must be provided
}

// SignupPageHandler renders the signup form
func SignupPageHandler(flashes flash.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "signup.html", gin.H{
			"Title": "Sign up",
			"Flash": popFlash(c, flashes),
		})
	}
}

// SignupHandler creates an account and sends the user to the login page
func SignupHandler(bank *service.Bank, flashes flash.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		respond(c, flashes, signup(c, bank))
	}
}

func signup(c *gin.Context, bank *service.Bank) Result {
	var form CredentialsForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		return Fail("/signup", errMissingCredentials)
	}
	if utf8.RuneCountInString(form.Username) > maxUsernameLength {
		return Fail("/signup", errUsernameTooLong)
	}
	if _, err := bank.Signup(c.Request.Context(), form.Username, form.Password); err != nil {
		return Fail("/signup", err) // Duplicate usernames re-show the form
	}
	return Ok("/login", "Account created! Please log in.")
}

// LoginPageHandler renders the login form
func LoginPageHandler(flashes flash.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "login.html", gin.H{
			"Title": "Log in",
			"Flash": popFlash(c, flashes),
		})
	}
}

// LoginHandler verifies the credentials and starts a session
func LoginHandler(bank *service.Bank, flashes flash.Store, session middleware.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		respond(c, flashes, login(c, bank, session))
	}
}

func login(c *gin.Context, bank *service.Bank, session middleware.SessionConfig) Result {
	var form CredentialsForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		return Fail("/login", errMissingCredentials)
	}
	user, err := bank.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		return Fail("/login", err)
	}
	if err := middleware.StartSession(c, session, user.ID); err != nil {
		return Fail("/login", err) // Signing failure is not the user's fault
	}
	return Ok("/", "Logged in successfully!")
}
