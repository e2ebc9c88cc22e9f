package api

import (
	"net/http"

	"teamtask/middleware"
	handler "teamtask/system"
	"teamtask/ws"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Deps are the long-lived components the router dispatches to.
type Deps struct {
	Handler     *handler.Handler
	Hub         *ws.Hub
	Limiter     *middleware.RateLimiter
	Logger      *zap.Logger
	CORSOrigins []string
}

func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := d.Handler

	r := mux.NewRouter()
	r.Use(middleware.Logging(logger))

	//  Public routes
	r.HandleFunc("/ws", ws.Handler(d.Hub, h.Tokens, logger)).Methods("GET")
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	//  Protected routes
	s := r.NewRoute().Subrouter()
	s.Use(middleware.JWT(h.Tokens, h.Store))
	s.Use(d.Limiter.Middleware)

	// Task routes addressed by id are guarded by the task policy, not by role.
	m := s.PathPrefix("/manager").Subrouter()
	m.Handle("/tasks", managerOnly(h.ManagerTasks)).Methods("GET")
	m.Handle("/tasks", managerOnly(h.CreateTasks)).Methods("POST")
	m.HandleFunc("/tasks/{id:[0-9]+}", h.GetTask).Methods("GET")
	m.HandleFunc("/tasks/{id:[0-9]+}", h.UpdateTask).Methods("PUT")
	m.HandleFunc("/tasks/{id:[0-9]+}", h.DeleteTask).Methods("DELETE")
	m.Handle("/employees", managerOnly(h.AssignableEmployees)).Methods("GET")
	m.Handle("/stats", managerOnly(h.ManagerStats)).Methods("GET")

	e := s.PathPrefix("/employee").Subrouter()
	e.Handle("/tasks", employeeOnly(h.EmployeeTasks)).Methods("GET")
	e.HandleFunc("/tasks/{id:[0-9]+}", h.GetTask).Methods("GET")
	e.HandleFunc("/tasks/{id:[0-9]+}/status", h.UpdateStatus).Methods("PUT")
	e.Handle("/dashboard", employeeOnly(h.EmployeeDashboard)).Methods("GET")

	n := s.PathPrefix("/notifications").Subrouter()
	n.HandleFunc("", h.ListNotifications).Methods("GET")
	n.HandleFunc("/unread", h.UnreadNotifications).Methods("GET")
	n.HandleFunc("/read-all", h.MarkAllNotificationsRead).Methods("PUT")
	n.HandleFunc("/{id:[0-9]+}/read", h.MarkNotificationRead).Methods("PUT")

	s.Handle("/rate-limit", handler.RateLimitStatusHandler(d.Limiter)).Methods("GET")

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Rate-Limit-Limit", "X-Rate-Limit-Remaining", "X-Rate-Limit-Reset"},
	}).Handler(r)
}

func managerOnly(fn http.HandlerFunc) http.Handler {
	return middleware.RequireManager(fn)
}

func employeeOnly(fn http.HandlerFunc) http.Handler {
	return middleware.RequireEmployee(fn)
}
