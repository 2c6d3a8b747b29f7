package models

import "time"

// User represents a registered account.
type User struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// Expense represents a financial expense record owned by a single account.
type Expense struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Notes       *string `json:"notes"`
	Date        string  `json:"date"`
	CreatedAt   string  `json:"created_at"`
}
