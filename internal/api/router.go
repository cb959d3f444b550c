package api

import (
	"minibank/internal/flash"      // Flash messages
	"minibank/internal/middleware" // Session and request middleware
	"minibank/internal/repository" // User storage
	"minibank/internal/service"    // Banking operations
	"minibank/internal/web"        // Page templates

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Deps are the collaborators the HTTP layer needs
type Deps struct {
	Repo    repository.UserRepository // Resolves sessions
	Bank    *service.Bank             // Signup, login, credit, debit
	Flashes flash.Store               // One-time messages
	Session middleware.SessionConfig  // Cookie signing
	Log     *logrus.Logger            // Access log
}

// NewRouter builds the Gin engine with every page and form route
func NewRouter(d Deps) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(d.Log),
		middleware.Session(d.Session, d.Repo), // Resolve the current user once per request
	)

	// Public pages
	r.GET("/signup", SignupPageHandler(d.Flashes))
	r.POST("/signup", SignupHandler(d.Bank, d.Flashes))
	r.GET("/login", LoginPageHandler(d.Flashes))
	r.POST("/login", LoginHandler(d.Bank, d.Flashes, d.Session))

	// Account pages, anonymous visitors are sent to /login
	account := r.Group("/")
	account.Use(middleware.RequireUser())
	account.GET("/", HomeHandler(d.Flashes))
	account.POST("/credit", CreditHandler(d.Bank, d.Flashes))
	account.POST("/debit", DebitHandler(d.Bank, d.Flashes))

	return r, nil
}
