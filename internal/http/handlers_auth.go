package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const sessionCookieName = "session"

type signupRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func userPayload(u core.User) map[string]any {
	return map[string]any{
		"user": map[string]any{
			"id":         u.ID,
			"username":   u.Username,
			"email":      u.Email,
			"created_at": u.CreatedAt.UTC().Format(time.RFC3339),
		},
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := validateSignup(r.Context(), s.storage, req); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	user, err := s.storage.CreateUser(r.Context(), req.Username, req.Email, hash)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	if err := s.startSession(w, r, user.ID); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userPayload(user))
}

func validateSignup(ctx context.Context, repo *storage.SQLiteRepository, req signupRequest) error {
	if req.Username == "" {
		return core.Invalid("username is required")
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return core.Invalid("a valid email is required")
	}
	if len(req.Password) < 6 {
		return core.Invalid("password must be at least 6 characters")
	}
	if req.Password != req.ConfirmPassword {
		return core.Invalid("passwords do not match")
	}

	if _, err := repo.GetUserByUsername(ctx, req.Username); err == nil {
		return core.Invalid("username is already taken")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if _, err := repo.GetUserByEmail(ctx, req.Email); err == nil {
		return core.Invalid("email is already registered")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.storage.GetUserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := s.startSession(w, r, user.ID); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, userPayload(user))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := s.storage.DeleteSession(r.Context(), cookie.Value); err != nil {
			slog.ErrorContext(r.Context(), "Failed to delete session", "error", err)
		}
	}
	s.setSessionCookie(w, "", -time.Hour)
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	if err := s.storage.DeleteUser(r.Context(), userID); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	s.setSessionCookie(w, "", -time.Hour)
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, userID int64) error {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return err
	}
	if err := s.storage.CreateSession(r.Context(), token, userID, time.Now().Add(s.sessionTTL)); err != nil {
		return err
	}
	s.setSessionCookie(w, token, s.sessionTTL)
	return nil
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// withAuth resolves the session cookie to a user and renews the session once
// it has passed half its lifetime.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		session, err := s.storage.GetSession(r.Context(), cookie.Value)
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "session expired")
			return
		}
		if err != nil {
			writeServiceError(r.Context(), w, err)
			return
		}

		if time.Until(session.ExpiresAt) < s.sessionTTL/2 {
			newExpiry := time.Now().Add(s.sessionTTL)
			if err := s.storage.RenewSession(r.Context(), session.Token, newExpiry); err != nil {
				slog.ErrorContext(r.Context(), "Failed to renew session", "error", err)
			} else {
				s.setSessionCookie(w, session.Token, s.sessionTTL)
			}
		}

		ctx := context.WithValue(r.Context(), userIDKey, session.UserID)
		next(w, r.WithContext(ctx))
	}
}

func userIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}
