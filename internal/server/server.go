package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"agenda/internal/config"
	"agenda/internal/handler"
	"agenda/internal/middleware"
	"agenda/internal/notify"
	"agenda/internal/store"
	ws "agenda/internal/websocket"
)

type Server struct {
	db           *sql.DB
	cfg          config.Config
	hub          *ws.Hub
	eventH       *handler.EventHandler
	calendarH    *handler.CalendarHandler
	authH        *handler.AuthHandler
	eventStore   *store.EventStore
	sessionStore *store.SessionStore
	scheduler    *notify.Scheduler
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	eventStore := store.NewEventStore(db)
	sessionStore := store.NewSessionStore(db)

	return &Server{
		db:           db,
		cfg:          cfg,
		hub:          hub,
		eventH:       handler.NewEventHandler(eventStore, hub, logger.With("component", "event")),
		calendarH:    handler.NewCalendarHandler(eventStore, logger.With("component", "calendar")),
		authH:        handler.NewAuthHandler(sessionStore, cfg.PasswordHash, logger.With("component", "auth")),
		eventStore:   eventStore,
		sessionStore: sessionStore,
		scheduler:    notify.NewScheduler(eventStore, hub, logger.With("component", "reminder")),
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// Scheduler returns the reminder scheduler so main can manage its lifecycle.
func (s *Server) Scheduler() *notify.Scheduler {
	return s.scheduler
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /logout", s.authH.Logout)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.cfg.AuthEnabled())
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Event API routes
	mux.HandleFunc("POST /api/events", s.eventH.Create)
	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.HandleFunc("GET /api/events/{id}", s.eventH.Get)
	mux.HandleFunc("PUT /api/events/{id}", s.eventH.Update)
	mux.HandleFunc("DELETE /api/events/{id}", s.eventH.Delete)
	mux.HandleFunc("DELETE /api/event-groups/{group_id}", s.eventH.DeleteGroup)
	mux.HandleFunc("POST /api/events/conflicts", s.eventH.CheckConflicts)

	// Calendar view routes
	mux.HandleFunc("GET /api/calendar/month", s.calendarH.Month)
	mux.HandleFunc("GET /api/calendar/week", s.calendarH.Week)
	mux.HandleFunc("GET /api/export.ics", s.calendarH.Export)

	// WebSocket for live updates and reminders
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
