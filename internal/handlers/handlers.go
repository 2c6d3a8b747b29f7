package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"expense-tracker-api/internal/auth"
	"expense-tracker-api/internal/models"
	"expense-tracker-api/internal/storage"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// TokenDuration is how long issued bearer tokens remain valid.
	TokenDuration = 24 * time.Hour
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db        *storage.DB
	jwtSecret []byte
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, jwtSecret []byte) *Handlers {
	return &Handlers{db: db, jwtSecret: jwtSecret}
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// Routes builds the full route table, wrapped in the CORS middleware.
func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("POST /login", h.Login)

	mux.Handle("GET /me", h.AuthMiddleware(http.HandlerFunc(h.Me)))
	mux.Handle("GET /expenses", h.AuthMiddleware(http.HandlerFunc(h.ListExpenses)))
	mux.Handle("POST /expenses", h.AuthMiddleware(http.HandlerFunc(h.CreateExpense)))
	mux.Handle("PUT /expenses/{id}", h.AuthMiddleware(http.HandlerFunc(h.UpdateExpense)))
	mux.Handle("DELETE /expenses/{id}", h.AuthMiddleware(http.HandlerFunc(h.DeleteExpense)))

	return CORS(mux)
}

// CORS wraps a handler with a wide-open CORS policy and answers preflight
// requests directly. Suitable for development/demo deployments only.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware wraps handlers to require a valid bearer token. The token's
// subject must still exist as a registered user; a token for a vanished
// account is treated the same as a bad signature.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authorization required")
			return
		}

		username, err := auth.ParseToken(token, h.jwtSecret)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "Token expired")
			} else {
				writeError(w, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		user, err := h.db.GetUserByUsername(username)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type expenseRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Notes       *string `json:"notes"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// Root reports the service name and version.
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Expense Tracker API",
		"version": "1.0.0",
	})
}

func validateRegister(req *registerRequest) string {
	if strings.TrimSpace(req.Username) == "" {
		return "Username is required"
	}
	if req.Password == "" {
		return "Password is required"
	}
	if strings.TrimSpace(req.FullName) == "" {
		return "Full name is required"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "Invalid email address"
	}
	return ""
}

func validateExpense(req *expenseRequest) string {
	if strings.TrimSpace(req.Description) == "" {
		return "Description is required"
	}
	if req.Amount <= 0 {
		return "Amount must be positive"
	}
	return ""
}

// Register creates a new account and returns a bearer token for it.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateRegister(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Register: failed to hash password: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user, err := h.db.CreateUser(req.Username, req.Email, req.FullName, hash)
	if err != nil {
		if errors.Is(err, storage.ErrUsernameTaken) {
			writeError(w, http.StatusBadRequest, "Username already exists")
			return
		}
		log.Printf("Register: failed to create user: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.respondWithToken(w, user)
}

// Login verifies credentials and returns a bearer token. Unknown usernames
// and wrong passwords yield the same response to resist enumeration.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.db.GetUserByUsername(req.Username)
	if err != nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	h.respondWithToken(w, user)
}

func (h *Handlers) respondWithToken(w http.ResponseWriter, user *models.User) {
	token, err := auth.GenerateToken(user.Username, h.jwtSecret, TokenDuration)
	if err != nil {
		log.Printf("Failed to generate token: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}

// Me returns the authenticated account's profile.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GetUserFromContext(r))
}

// ListExpenses returns the account's expenses in creation order.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	expenses, err := h.db.ListExpenses(user.Username)
	if err != nil {
		log.Printf("ListExpenses error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, expenses)
}

// CreateExpense adds a new expense to the account's collection.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateExpense(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	expense, err := h.db.CreateExpense(user.Username, req.Description, req.Amount, req.Category, req.Notes)
	if err != nil {
		log.Printf("CreateExpense error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, expense)
}

// UpdateExpense replaces the mutable fields of one of the account's expenses.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Expense not found")
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateExpense(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	expense, err := h.db.UpdateExpense(user.Username, id, req.Description, req.Amount, req.Category, req.Notes)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Expense not found")
			return
		}
		log.Printf("UpdateExpense error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, expense)
}

// DeleteExpense removes one of the account's expenses.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Expense not found")
		return
	}

	if err := h.db.DeleteExpense(user.Username, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Expense not found")
			return
		}
		log.Printf("DeleteExpense error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Expense deleted successfully"})
}
