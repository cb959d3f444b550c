package domain

// User Model
type User struct {
	ID       uint    `gorm:"primaryKey"`                 // Primary key
	Username string  `gorm:"size:100;unique;not null"`   // Unique username, fixed at signup
	Password string  `gorm:"size:100;not null" json:"-"` // Bcrypt hash, never the plaintext
	Balance  float64 `gorm:"not null;default:0"`         // Account balance
}
