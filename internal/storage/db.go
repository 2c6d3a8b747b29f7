package storage

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"expense-tracker-api/internal/models"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a requested record does not exist
	// (or is not owned by the requesting account).
	ErrNotFound = errors.New("record not found")
	// ErrUsernameTaken is returned when registering an already-used username.
	ErrUsernameTaken = errors.New("username already exists")
)

const (
	dateFormat     = "2006-01-02"
	dateTimeFormat = "2006-01-02T15:04:05"
)

// notesValue unwraps an optional notes field into a driver-friendly value.
func notesValue(notes *string) any {
	if notes == nil {
		return nil
	}
	return *notes
}

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			full_name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		// AUTOINCREMENT keeps ids globally unique and strictly increasing,
		// and never reuses an id after a delete.
		`CREATE TABLE IF NOT EXISTS expenses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL REFERENCES users(username),
			description TEXT NOT NULL,
			amount REAL NOT NULL,
			category TEXT NOT NULL,
			notes TEXT,
			date TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CreateUser registers a new account with the given credentials.
// Returns ErrUsernameTaken if the username is already registered.
func (db *DB) CreateUser(username, email, fullName, passwordHash string) (*models.User, error) {
	_, err := db.conn.Exec(
		"INSERT INTO users (username, email, full_name, password_hash) VALUES (?, ?, ?, ?)",
		username, email, fullName, passwordHash,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	return db.GetUserByUsername(username)
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(username string) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT username, email, full_name, password_hash, created_at FROM users WHERE username = ?",
		username,
	)

	var u models.User
	if err := row.Scan(&u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UserCount returns the number of registered users.
func (db *DB) UserCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// CreateExpense inserts a new expense for the given account, stamping the
// creation date and timestamp at the current time.
func (db *DB) CreateExpense(username, description string, amount float64, category string, notes *string) (*models.Expense, error) {
	now := time.Now()
	date := now.Format(dateFormat)
	createdAt := now.Format(dateTimeFormat)

	result, err := db.conn.Exec(
		"INSERT INTO expenses (username, description, amount, category, notes, date, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		username, description, amount, category, notesValue(notes), date, createdAt,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Expense{
		ID:          id,
		Description: description,
		Amount:      amount,
		Category:    category,
		Notes:       notes,
		Date:        date,
		CreatedAt:   createdAt,
	}, nil
}

// GetExpense retrieves a single expense by id within the account's own
// collection. An id owned by a different account yields ErrNotFound.
func (db *DB) GetExpense(username string, id int64) (*models.Expense, error) {
	row := db.conn.QueryRow(
		"SELECT id, description, amount, category, notes, date, created_at FROM expenses WHERE username = ? AND id = ?",
		username, id,
	)

	var e models.Expense
	if err := row.Scan(&e.ID, &e.Description, &e.Amount, &e.Category, &e.Notes, &e.Date, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ListExpenses retrieves all expenses for the given account in insertion order.
func (db *DB) ListExpenses(username string) ([]models.Expense, error) {
	rows, err := db.conn.Query(
		"SELECT id, description, amount, category, notes, date, created_at FROM expenses WHERE username = ? ORDER BY id",
		username,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &e.Category, &e.Notes, &e.Date, &e.CreatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

// UpdateExpense replaces the mutable fields of an expense owned by the given
// account, preserving its id, date, and created_at.
func (db *DB) UpdateExpense(username string, id int64, description string, amount float64, category string, notes *string) (*models.Expense, error) {
	result, err := db.conn.Exec(
		"UPDATE expenses SET description = ?, amount = ?, category = ?, notes = ? WHERE username = ? AND id = ?",
		description, amount, category, notesValue(notes), username, id,
	)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return db.GetExpense(username, id)
}

// DeleteExpense removes an expense owned by the given account.
func (db *DB) DeleteExpense(username string, id int64) error {
	result, err := db.conn.Exec(
		"DELETE FROM expenses WHERE username = ? AND id = ?",
		username, id,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
