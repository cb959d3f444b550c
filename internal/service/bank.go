package service

import (
	"context"                      // Request-scoped deadlines
	"errors"                       // Error inspection
	"minibank/internal/domain"     // Importing domain models
	"minibank/internal/repository" // User storage
	"minibank/internal/utils"      // Password hashing
	"sync"                         // Lazy dummy hash

	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Hash length limit
)

// Bank implements signup, login, credit and debit on top of a UserRepository
type Bank struct {
	repo repository.UserRepository
	log  *logrus.Logger
}

// NewBank wires a Bank to its storage and logger
func NewBank(repo repository.UserRepository, log *logrus.Logger) *Bank {
	return &Bank{repo: repo, log: log}
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// dummyPasswordHash lets a login for an unknown user cost as much as a real one
func dummyPasswordHash() string {
	dummyHashOnce.Do(func() {
		dummyHash, _ = utils.HashPassword("unused-password")
	})
	return dummyHash
}

// Signup creates a user with a hashed password and a zero balance
func (b *Bank) Signup(ctx context.Context, username, password string) (*domain.User, error) {
	existing, err := b.repo.FindByUsername(ctx, username) // Fail fast before paying for bcrypt
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateUsername
	}
	hash, err := utils.HashPassword(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, domain.ErrPasswordTooLong
	}
	if err != nil {
		return nil, err
	}
	user, err := b.repo.Create(ctx, username, hash) // Create repeats the lookup right before inserting
	if err != nil {
		return nil, err
	}
	b.log.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User signed up")
	return user, nil
}

// Login returns the user whose password matches.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
func (b *Bank) Login(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := b.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		utils.CheckPassword(dummyPasswordHash(), password)
		return nil, domain.ErrInvalidCredentials
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, domain.ErrInvalidCredentials
	}
	b.log.WithField("user_id", user.ID).Info("User logged in")
	return user, nil
}

// Credit adds amount to the user's balance
func (b *Bank) Credit(ctx context.Context, userID uint, amount float64) (*domain.User, error) {
	return b.apply(ctx, userID, amount, "credit", domain.Credit)
}

// Debit subtracts amount from the user's balance if it covers it
func (b *Bank) Debit(ctx context.Context, userID uint, amount float64) (*domain.User, error) {
	return b.apply(ctx, userID, amount, "debit", domain.Debit)
}

// apply runs load, transition, save. Nothing locks the row between the load
// and the save, so two concurrent requests on one account can lose an update.
func (b *Bank) apply(ctx context.Context, userID uint, amount float64, kind string, transition func(balance, amount float64) (float64, error)) (*domain.User, error) {
	user, err := b.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotAuthenticated // Session points at a user that no longer resolves
	}
	next, err := transition(user.Balance, amount)
	if err != nil {
		b.log.WithFields(logrus.Fields{
			"user_id": user.ID,
			"amount":  amount,
			"type":    kind,
			"error":   err.Error(),
		}).Warn("Transaction rejected")
		return user, err
	}
	previous := user.Balance
	user.Balance = next
	if err := b.repo.Save(ctx, user); err != nil {
		user.Balance = previous
		b.log.WithFields(logrus.Fields{
			"user_id": user.ID,
			"amount":  amount,
			"type":    kind,
			"error":   err.Error(),
		}).Error("Transaction failed")
		return nil, err
	}
	b.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"amount":  amount,
		"type":    kind,
		"balance": user.Balance,
	}).Info("Transaction completed")
	return user, nil
}
