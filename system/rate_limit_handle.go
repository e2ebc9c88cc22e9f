package system

import (
	"context"
	"net/http"
	"time"

	"teamtask/common"
)

type RateLimitStatus struct {
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"` // seconds until reset
}

// QuotaReader reports the caller's remaining request quota.
type QuotaReader interface {
	Status(ctx context.Context, userID int64) (int, time.Duration, error)
}

func RateLimitStatusHandler(limiter QuotaReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := common.UserIDFrom(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		remaining, ttl, err := limiter.Status(r.Context(), userID)
		if err != nil {
			http.Error(w, "Failed to read rate limit", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, RateLimitStatus{
			Remaining: remaining,
			Reset:     int64(ttl.Seconds()),
		})
	}
}
