package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"echofm/core/auth"
	"echofm/logger"
	"echofm/model"
	"echofm/store"
)

const sessionName = "echofm_session"

type contextKey string

const userIDKey contextKey = "userID"

// CredentialsRequest is the body for registration and login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterHandler creates a new (non-admin) account and signs it in.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	user, err := h.catalog.CreateUser(&model.User{
		Username:     req.Username,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUser) {
			http.Error(w, "Username already exists", http.StatusConflict)
			return
		}
		logger.Error("failed to create user", logger.ErrorField(err))
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	if err := h.signIn(w, r, user.ID); err != nil {
		logger.Error("failed to create session", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Info("user registered", logger.String("username", user.Username))
	respondJSON(w, http.StatusCreated, user)
}

// LoginHandler verifies credentials and starts a session.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.catalog.GetUserByUsername(req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Warn("login for unknown user", logger.String("username", req.Username))
			http.Error(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}
		logger.Error("failed to look up user", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		logger.Warn("password verification failed", logger.String("username", req.Username))
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	if err := h.signIn(w, r, user.ID); err != nil {
		logger.Error("failed to create session", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in", logger.String("username", user.Username))
	respondJSON(w, http.StatusOK, user)
}

// LogoutHandler clears the session cookie.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessions.Get(r, sessionName)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		logger.Error("failed to clear session", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// CurrentUserHandler returns the signed-in user.
func (h *APIHandler) CurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	user, err := h.catalog.GetUser(userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		logger.Error("failed to load user", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *APIHandler) signIn(w http.ResponseWriter, r *http.Request, userID int64) error {
	session, _ := h.sessions.Get(r, sessionName)
	session.Values["userID"] = userID
	return session.Save(r, w)
}

// AuthMiddleware requires a signed-in session. Unauthenticated requests get a
// 401 with an empty body.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := h.sessions.Get(r, sessionName)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		userID, ok := session.Values["userID"].(int64)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// AdminMiddleware requires a signed-in admin. Non-admins get the same 401 as
// unauthenticated requests; there is no separate 403.
func (h *APIHandler) AdminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		userID, err := GetUserIDFromContext(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		user, err := h.catalog.GetUser(userID)
		if err != nil || !user.IsAdmin {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDKey).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}
