package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	status, raw := callRaw(t, method, path, token, body)

	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return status, decoded
}

func callRaw(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, appURL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out.Bytes()
}

func register(t *testing.T, username, email, password, fullName string) string {
	t.Helper()

	status, resp := call(t, "POST", "/register", "", map[string]string{
		"username":  username,
		"email":     email,
		"password":  password,
		"full_name": fullName,
	})
	require.Equal(t, http.StatusOK, status)

	token, _ := resp["access_token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, "bearer", resp["token_type"])
	return token
}

func TestRootEndpoint(t *testing.T) {
	status, resp := call(t, "GET", "/", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Expense Tracker API", resp["message"])
	assert.Equal(t, "1.0.0", resp["version"])
}

// Full walkthrough: register alice, record an expense, verify ids and dates,
// then make sure a second account starts with an empty list.
func TestAccountAndExpenseFlow(t *testing.T) {
	aliceToken := register(t, "alice", "a@x.com", "pw", "Alice A")

	// Profile
	status, me := call(t, "GET", "/me", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", me["username"])
	assert.Equal(t, "a@x.com", me["email"])
	assert.Equal(t, "Alice A", me["full_name"])

	// Create the first expense of the process: id must be 1, date today
	status, created := call(t, "POST", "/expenses", aliceToken, map[string]any{
		"description": "coffee",
		"amount":      4.50,
		"category":    "food",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), created["id"])
	assert.Equal(t, "coffee", created["description"])
	assert.Equal(t, 4.50, created["amount"])
	assert.Equal(t, time.Now().Format("2006-01-02"), created["date"])
	assert.Nil(t, created["notes"])

	// Bob's list is independent and empty
	bobToken := register(t, "bob", "b@x.com", "pw", "Bob B")

	status, raw := callRaw(t, "GET", "/expenses", bobToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(raw))

	// Alice sees exactly her expense
	status, raw = callRaw(t, "GET", "/expenses", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)

	var listed []map[string]any
	require.NoError(t, json.Unmarshal(raw, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "coffee", listed[0]["description"])

	// Update then delete
	id := int64(created["id"].(float64))
	status, updated := call(t, "PUT", fmt.Sprintf("/expenses/%d", id), aliceToken, map[string]any{
		"description": "espresso",
		"amount":      5.25,
		"category":    "drinks",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "espresso", updated["description"])
	assert.Equal(t, created["date"], updated["date"])
	assert.Equal(t, created["created_at"], updated["created_at"])

	status, deleted := call(t, "DELETE", fmt.Sprintf("/expenses/%d", id), aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Expense deleted successfully", deleted["message"])

	status, _ = call(t, "DELETE", fmt.Sprintf("/expenses/%d", id), aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLoginFlow(t *testing.T) {
	register(t, "carol", "c@x.com", "hunter2", "Carol C")

	// Correct credentials
	status, resp := call(t, "POST", "/login", "", map[string]string{
		"username": "carol",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusOK, status)
	token, _ := resp["access_token"].(string)
	require.NotEmpty(t, token)

	status, me := call(t, "GET", "/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "carol", me["username"])

	// Wrong password and unknown user are indistinguishable
	status, wrongPw := call(t, "POST", "/login", "", map[string]string{
		"username": "carol",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, unknown := call(t, "POST", "/login", "", map[string]string{
		"username": "nobody",
		"password": "hunter2",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, wrongPw, unknown)
}

func TestUnauthorizedAccess(t *testing.T) {
	status, resp := call(t, "GET", "/expenses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authorization required", resp["detail"])

	status, resp = call(t, "GET", "/me", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", resp["detail"])
}

func TestDuplicateRegistration(t *testing.T) {
	register(t, "dave", "d@x.com", "pw", "Dave D")

	status, resp := call(t, "POST", "/register", "", map[string]string{
		"username":  "dave",
		"email":     "other@x.com",
		"password":  "pw2",
		"full_name": "Other Dave",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username already exists", resp["detail"])
}
