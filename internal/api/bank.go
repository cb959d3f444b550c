package api

import (
	"context"                      // Request-scoped deadlines
	"errors"                       // Error inspection
	"fmt"                          // Message formatting
	"minibank/internal/domain"     // Importing domain models
	"minibank/internal/flash"      // Flash messages
	"minibank/internal/middleware" // Current user
	"minibank/internal/service"    // Banking operations
	"net/http"                     // HTTP status codes

	"github.com/gin-gonic/gin"         // Gin web framework
	"github.com/gin-gonic/gin/binding" // Form binding
)

// AmountForm is the body of the credit and debit forms
type AmountForm struct {
	Amount string `form:"amount"` // Parsed by domain.ParseAmount
}

// HomeHandler shows the current user's balance
func HomeHandler(flashes flash.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.Redirect(http.StatusSeeOther, "/login") // RequireUser normally catches this first
			return
		}
		c.HTML(http.StatusOK, "home.html", gin.H{
			"Title":    "Your account",
			"Username": user.Username,
			"Balance":  domain.FormatAmount(user.Balance),
			"Flash":    popFlash(c, flashes),
		})
	}
}

// CreditHandler adds the submitted amount to the current user's balance
func CreditHandler(bank *service.Bank, flashes flash.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		respond(c, flashes, transact(c, "Credited", bank.Credit))
	}
}

// DebitHandler subtracts the submitted amount if the balance covers it
func DebitHandler(bank *service.Bank, flashes flash.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		respond(c, flashes, transact(c, "Debited", bank.Debit))
	}
}

// operation is Bank.Credit or Bank.Debit
type operation func(ctx context.Context, userID uint, amount float64) (*domain.User, error)

func transact(c *gin.Context, verb string, op operation) Result {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return Fail("/login", domain.ErrNotAuthenticated)
	}
	var form AmountForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		return Fail("/", domain.ErrInvalidAmount)
	}
	amount, err := domain.ParseAmount(form.Amount)
	if err != nil {
		return Fail("/", err)
	}
	// Only the id is taken from the session user; op reloads the row
	if _, err := op(c.Request.Context(), user.ID, amount); err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			return Fail("/login", err)
		}
		return Fail("/", err)
	}
	return Ok("/", fmt.Sprintf("%s %s successfully!", verb, domain.FormatAmount(amount)))
}
