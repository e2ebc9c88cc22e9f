package system

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"teamtask/common"
	"teamtask/entity"
	"teamtask/storage"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handler exposes the services over HTTP.
type Handler struct {
	Store       storage.Store
	Assignments *AssignmentService
	Queries     *QueryService
	Notifier    *Notifier
	Tokens      *common.TokenIssuer
	Logger      *zap.Logger
}

func NewHandler(store storage.Store, assignments *AssignmentService, queries *QueryService, notifier *Notifier, tokens *common.TokenIssuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:       store,
		Assignments: assignments,
		Queries:     queries,
		Notifier:    notifier,
		Tokens:      tokens,
		Logger:      logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError maps service errors onto status codes. Anything unexpected is
// logged and hidden behind a 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"message": verr.Error(),
			"errors":  verr.Fields,
		})
	case errors.Is(err, ErrForbidden):
		writeMessage(w, http.StatusForbidden, "This action is unauthorized.")
	case errors.Is(err, ErrNotFound), errors.Is(err, storage.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Not found.")
	default:
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func actorOr401(w http.ResponseWriter, r *http.Request) (entity.Actor, bool) {
	actor, ok := common.ActorFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
	}
	return actor, ok
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		writeMessage(w, http.StatusBadRequest, "Invalid ID")
		return 0, false
	}
	return id, true
}

func pageParam(r *http.Request) int {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return normalizePage(page)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}
