package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack/internal/services"
	"fintrack/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ServerTestSuite struct {
	suite.Suite
	repo   *storage.SQLiteRepository
	server *Server
}

func (suite *ServerTestSuite) SetupTest() {
	repo, err := storage.NewSQLiteRepository(":memory:")
	require.NoError(suite.T(), err)
	suite.repo = repo

	snapshots := services.NewSnapshotService(repo).WithClock(func() time.Time {
		return time.Date(2025, 5, 15, 12, 0, 0, 0, time.UTC)
	})

	suite.server = NewServer(Config{
		Addr:       ":0",
		SessionTTL: time.Hour,
	}, repo,
		services.NewProfileService(repo),
		services.NewLedgerService(repo, nil),
		snapshots)
}

func (suite *ServerTestSuite) TearDownTest() {
	if suite.server != nil {
		_ = suite.server.Shutdown(context.Background())
	}
	if suite.repo != nil {
		suite.repo.Close()
	}
}

func (suite *ServerTestSuite) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	suite.server.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func (suite *ServerTestSuite) doRaw(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	suite.server.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func (suite *ServerTestSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// signup registers a user and returns the session cookie.
func (suite *ServerTestSuite) signup(username string) *http.Cookie {
	rec := suite.do(http.MethodPost, "/api/signup", map[string]string{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "secret1",
		"confirm_password": "secret1",
	})
	require.Equal(suite.T(), http.StatusCreated, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value != "" {
			return c
		}
	}
	suite.T().Fatal("no session cookie in signup response")
	return nil
}

func (suite *ServerTestSuite) onboard(cookie *http.Cookie) {
	rec := suite.do(http.MethodPost, "/api/profile", map[string]any{
		"monthly_income":  2000.00,
		"savings_goal":    1000.00,
		"current_savings": 0,
	}, cookie)
	require.Equal(suite.T(), http.StatusOK, rec.Code, rec.Body.String())
}

func (suite *ServerTestSuite) TestHealthEndpoints() {
	rec := suite.do(http.MethodGet, "/healthz", nil)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	rec = suite.do(http.MethodGet, "/readyz", nil)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
}

func (suite *ServerTestSuite) TestSignupValidation() {
	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing username", map[string]string{"email": "a@b.c", "password": "secret1", "confirm_password": "secret1"}},
		{"bad email", map[string]string{"username": "a", "email": "nope", "password": "secret1", "confirm_password": "secret1"}},
		{"short password", map[string]string{"username": "a", "email": "a@b.c", "password": "abc", "confirm_password": "abc"}},
		{"mismatched confirmation", map[string]string{"username": "a", "email": "a@b.c", "password": "secret1", "confirm_password": "secret2"}},
	}
	for _, tc := range cases {
		rec := suite.do(http.MethodPost, "/api/signup", tc.body)
		assert.Equal(suite.T(), http.StatusUnprocessableEntity, rec.Code, "%s: %s", tc.name, rec.Body.String())
		body := suite.decode(rec)
		assert.Equal(suite.T(), false, body["success"])
	}
}

func (suite *ServerTestSuite) TestSignupDuplicate() {
	suite.signup("alice")

	rec := suite.do(http.MethodPost, "/api/signup", map[string]string{
		"username":         "alice",
		"email":            "other@example.com",
		"password":         "secret1",
		"confirm_password": "secret1",
	})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, rec.Code)
}

func (suite *ServerTestSuite) TestLoginAndLogout() {
	suite.signup("alice")

	rec := suite.do(http.MethodPost, "/api/login", map[string]string{
		"username": "alice", "password": "secret1",
	})
	require.Equal(suite.T(), http.StatusOK, rec.Code)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			cookie = c
		}
	}
	require.NotNil(suite.T(), cookie)

	rec = suite.do(http.MethodPost, "/api/logout", nil, cookie)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	// The session is gone afterwards.
	rec = suite.do(http.MethodGet, "/api/snapshot", nil, cookie)
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
}

func (suite *ServerTestSuite) TestLoginWrongPassword() {
	suite.signup("alice")

	rec := suite.do(http.MethodPost, "/api/login", map[string]string{
		"username": "alice", "password": "wrong-password",
	})
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)

	rec = suite.do(http.MethodPost, "/api/login", map[string]string{
		"username": "nobody", "password": "secret1",
	})
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
}

func (suite *ServerTestSuite) TestAuthRequired() {
	for _, path := range []string{"/api/profile", "/api/snapshot"} {
		rec := suite.do(http.MethodGet, path, nil)
		assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code, path)
	}
	rec := suite.do(http.MethodPost, "/api/expenses", map[string]any{})
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
}

func (suite *ServerTestSuite) TestProfileLifecycle() {
	cookie := suite.signup("alice")

	rec := suite.do(http.MethodGet, "/api/profile", nil, cookie)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	body := suite.decode(rec)
	assert.Equal(suite.T(), false, body["onboarded"])

	suite.onboard(cookie)

	rec = suite.do(http.MethodGet, "/api/profile", nil, cookie)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	body = suite.decode(rec)
	assert.Equal(suite.T(), true, body["onboarded"])

	profile := body["profile"].(map[string]any)
	assert.Equal(suite.T(), float64(2000), profile["monthly_income"])
	assert.Equal(suite.T(), float64(1000), profile["savings_goal"])
}

func (suite *ServerTestSuite) TestProfileValidation() {
	cookie := suite.signup("alice")

	rec := suite.do(http.MethodPost, "/api/profile", map[string]any{
		"monthly_income":  0,
		"savings_goal":    1000.00,
		"current_savings": 0,
	}, cookie)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, rec.Code)
}

func (suite *ServerTestSuite) TestAddExpense() {
	cookie := suite.signup("alice")
	suite.onboard(cookie)

	rec := suite.do(http.MethodPost, "/api/expenses", map[string]any{
		"date":     "2025-05-10",
		"category": "food",
		"amount":   12.34,
		"note":     "lunch",
	}, cookie)
	require.Equal(suite.T(), http.StatusCreated, rec.Code, rec.Body.String())

	body := suite.decode(rec)
	expense := body["expense"].(map[string]any)
	assert.Equal(suite.T(), "2025-05-10", expense["date"])
	assert.Equal(suite.T(), "food", expense["category"])
	assert.Equal(suite.T(), 12.34, expense["amount"])
}

func (suite *ServerTestSuite) TestAddExpenseRejectsImpossibleDate() {
	cookie := suite.signup("alice")
	suite.onboard(cookie)

	rec := suite.doRaw(http.MethodPost, "/api/expenses",
		`{"date":"2024-02-30","category":"food","amount":10}`, cookie)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func (suite *ServerTestSuite) TestAddExpenseValidation() {
	cookie := suite.signup("alice")
	suite.onboard(cookie)

	cases := []string{
		`{"date":"2025-05-10","category":"","amount":10}`,
		`{"date":"2025-05-10","category":"food","amount":0}`,
		`{"date":"2025-05-10","category":"food","amount":-5}`,
	}
	for _, body := range cases {
		rec := suite.doRaw(http.MethodPost, "/api/expenses", body, cookie)
		assert.Equal(suite.T(), http.StatusUnprocessableEntity, rec.Code, body)
	}

	// Structurally malformed JSON is a plain bad request.
	rec := suite.doRaw(http.MethodPost, "/api/expenses", `{"date":`, cookie)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
}

func (suite *ServerTestSuite) TestAddExpenseRequiresOnboarding() {
	cookie := suite.signup("alice")

	rec := suite.do(http.MethodPost, "/api/expenses", map[string]any{
		"date": "2025-05-10", "category": "food", "amount": 10,
	}, cookie)
	assert.Equal(suite.T(), http.StatusConflict, rec.Code)
}

func (suite *ServerTestSuite) TestAddSaving() {
	cookie := suite.signup("alice")
	suite.onboard(cookie)

	rec := suite.do(http.MethodPost, "/api/savings", map[string]any{
		"date":   "2025-05-12",
		"amount": 300.00,
	}, cookie)
	require.Equal(suite.T(), http.StatusCreated, rec.Code, rec.Body.String())

	body := suite.decode(rec)
	saving := body["saving"].(map[string]any)
	assert.Equal(suite.T(), float64(300), saving["amount"])
}

func (suite *ServerTestSuite) TestSnapshotFlow() {
	cookie := suite.signup("alice")

	// Before onboarding the snapshot reports the state instead of failing.
	rec := suite.do(http.MethodGet, "/api/snapshot", nil, cookie)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	body := suite.decode(rec)
	assert.Equal(suite.T(), false, body["onboarded"])

	suite.onboard(cookie) // income 2000, goal 1000

	// Spend over budget this month, save across months.
	for _, payload := range []map[string]any{
		{"date": "2025-05-10", "category": "rent", "amount": 2500.00},
	} {
		rec := suite.do(http.MethodPost, "/api/expenses", payload, cookie)
		require.Equal(suite.T(), http.StatusCreated, rec.Code, rec.Body.String())
	}
	for _, payload := range []map[string]any{
		{"date": "2025-03-01", "amount": 800.00},
		{"date": "2025-05-05", "amount": 300.00},
	} {
		rec := suite.do(http.MethodPost, "/api/savings", payload, cookie)
		require.Equal(suite.T(), http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = suite.do(http.MethodGet, "/api/snapshot", nil, cookie)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	body = suite.decode(rec)
	require.Equal(suite.T(), true, body["onboarded"])

	snapshot := body["snapshot"].(map[string]any)
	assert.Equal(suite.T(), "2025-05-01", snapshot["period_start"])
	assert.Equal(suite.T(), float64(2500), snapshot["total_spent"])
	assert.Equal(suite.T(), float64(1100), snapshot["total_savings"])
	assert.Equal(suite.T(), float64(300), snapshot["savings_this_month"])
	assert.Equal(suite.T(), float64(2000), snapshot["monthly_budget"])
	assert.Equal(suite.T(), float64(100), snapshot["budget_used_percent"])
	assert.Equal(suite.T(), float64(100), snapshot["savings_progress_percent"])

	recent := snapshot["recent_expenses"].([]any)
	require.Len(suite.T(), recent, 1)
	recentSavings := snapshot["recent_savings"].([]any)
	require.Len(suite.T(), recentSavings, 2)
	first := recentSavings[0].(map[string]any)
	assert.Equal(suite.T(), "2025-05-05", first["date"])
}

func (suite *ServerTestSuite) TestDeleteAccount() {
	cookie := suite.signup("alice")
	suite.onboard(cookie)

	rec := suite.do(http.MethodDelete, "/api/account", nil, cookie)
	require.Equal(suite.T(), http.StatusOK, rec.Code)

	rec = suite.do(http.MethodGet, "/api/profile", nil, cookie)
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)

	rec = suite.do(http.MethodPost, "/api/login", map[string]string{
		"username": "alice", "password": "secret1",
	})
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
}

func (suite *ServerTestSuite) TestSecurityHeaders() {
	rec := suite.do(http.MethodPost, "/api/login", map[string]string{"username": "x", "password": "y"})
	assert.Equal(suite.T(), "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(suite.T(), "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
