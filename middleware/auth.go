package middleware

import (
	"errors"
	"net/http"
	"strings"

	"teamtask/common"
	"teamtask/entity"
	"teamtask/storage"
)

// TokenValidator resolves a bearer token to a user id.
type TokenValidator interface {
	Validate(token string) (int64, error)
}

// JWT authenticates the bearer token and resolves the user's roles once,
// storing the resulting Actor on the request context.
func JWT(tokens TokenValidator, users storage.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			userID, err := tokens.Validate(parts[1])
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if errors.Is(err, storage.ErrNotFound) {
				http.Error(w, "Unknown user", http.StatusUnauthorized)
				return
			}
			if err != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			actor := entity.NewActor(user.ID, user.Name, user.Roles)
			next.ServeHTTP(w, r.WithContext(common.WithActor(r.Context(), actor)))
		})
	}
}

// RequireManager admits actors holding the manager role.
func RequireManager(next http.Handler) http.Handler {
	return requireActor(next, entity.Actor.IsManager)
}

// RequireEmployee admits employees and users without any role.
func RequireEmployee(next http.Handler) http.Handler {
	return requireActor(next, entity.Actor.IsEmployee)
}

func requireActor(next http.Handler, allowed func(entity.Actor) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := common.ActorFrom(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !allowed(actor) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
