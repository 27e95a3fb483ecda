package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/authhub-io/authhub/internal/auth"
	"github.com/authhub-io/authhub/internal/database"
	"github.com/authhub-io/authhub/internal/metrics"
)

type credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin"`
}

// dummyHash is compared against when the username does not exist, so a
// login probe costs the same whether or not the account is real. The
// result is discarded; the request is rejected either way.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// RegisterHandler creates a new account. Registration does not log the
// user in; no token is issued here.
func (api *Api) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		writeError(w, http.StatusBadRequest, "Missing credentials")
		return
	}
	if err := api.validate.Struct(creds); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		writeError(w, http.StatusBadRequest, "Missing credentials")
		return
	}

	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		log.Printf("Registration error: %v", err)
		metrics.RegistrationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := api.store.CreateUser(creds.Username, hash); err != nil {
		if errors.Is(err, database.ErrUsernameTaken) {
			log.Printf("Registration failed - username exists: %s", creds.Username)
			metrics.RegistrationsTotal.WithLabelValues(metrics.OutcomeConflict).Inc()
			writeError(w, http.StatusConflict, "Username already exists")
			return
		}
		log.Printf("Registration error: %v", err)
		metrics.RegistrationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("User registered successfully: %s", creds.Username)
	metrics.RegistrationsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

// LoginHandler verifies credentials and issues a token. Unknown username
// and wrong password produce byte-identical responses.
func (api *Api) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		metrics.LoginsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		writeError(w, http.StatusBadRequest, "Missing credentials")
		return
	}
	if err := api.validate.Struct(creds); err != nil {
		metrics.LoginsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		writeError(w, http.StatusBadRequest, "Missing credentials")
		return
	}

	user, err := api.store.GetUserByUsername(creds.Username)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			// Burn a hash comparison anyway to keep timing flat.
			auth.CheckPassword(creds.Password, dummyHash)
			log.Printf("Login failed for user: %s", creds.Username)
			metrics.LoginsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Printf("Login error: %v", err)
		metrics.LoginsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ok, err := auth.CheckPassword(creds.Password, user.Password)
	if err != nil {
		// Corrupted stored hash, not a wrong password. Same rejection
		// for the caller, different line in the log.
		log.Printf("Login error: stored hash unreadable for user %s: %v", creds.Username, err)
		metrics.LoginsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !ok {
		log.Printf("Login failed for user: %s", creds.Username)
		metrics.LoginsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := api.store.UpdateLastLogin(user.ID); err != nil {
		log.Printf("Login error: %v", err)
		metrics.LoginsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := api.tokens.Issue(user.ID)
	if err != nil {
		log.Printf("Login error: %v", err)
		metrics.LoginsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("User logged in successfully: %s", creds.Username)
	metrics.LoginsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	metrics.TokensIssued.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GetUserHandler returns the authenticated user's profile. The gateway has
// already resolved the user; we re-fetch by id so a concurrent update is
// reflected.
func (api *Api) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	user, err := api.store.GetUserByID(current.ID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("Error fetching user data: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLogin,
	})
}
