package system

import (
	"errors"
	"net/http"
	"strings"

	"teamtask/entity"
	"teamtask/storage"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates an account without roles; such users act as employees
// until an administrator promotes them.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if !decodeBody(w, r, &in) {
		return
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if verr := checkStruct(in); !verr.Empty() {
		h.writeError(w, r, verr)
		return
	}

	ctx := r.Context()
	if _, err := h.Store.GetUserByEmail(ctx, in.Email); err == nil {
		h.writeError(w, r, validationFailed("email", "The email has already been taken."))
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		h.writeError(w, r, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user := entity.User{Name: in.Name, Email: in.Email, Password: string(hash)}
	if err := h.Store.CreateUser(ctx, &user); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.Logger.Info("user registered", zap.Int64("user_id", user.ID))
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Registration successful",
		"user_id": user.ID,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if !decodeBody(w, r, &in) {
		return
	}
	if verr := checkStruct(in); !verr.Empty() {
		h.writeError(w, r, verr)
		return
	}

	user, err := h.Store.GetUserByEmail(r.Context(), in.Email)
	if errors.Is(err, storage.ErrNotFound) {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, expiresAt, err := h.Tokens.Issue(user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Login successful",
		"token":      token,
		"expires_at": expiresAt.UTC(),
		"roles":      user.Roles,
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		http.Error(w, "Database not reachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
