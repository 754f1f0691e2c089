package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farmacase/farmacase/internal/auth"
	"github.com/farmacase/farmacase/internal/handler"
	"github.com/farmacase/farmacase/internal/inventory"
	"github.com/farmacase/farmacase/internal/middleware"
	"github.com/farmacase/farmacase/internal/notify"
	"github.com/farmacase/farmacase/internal/store"
)

const (
	loginFailureLimit  = 10
	loginFailureWindow = 15 * time.Minute
)

type Config struct {
	Inventory    inventory.Config
	Notify       notify.Config
	SecureCookie bool
}

type Server struct {
	db            *sql.DB
	houseH        *handler.HouseHandler
	medicationH   *handler.MedicationHandler
	userH         *handler.UserHandler
	notificationH *handler.NotificationHandler
	sessionH      *handler.SessionHandler
	sessionStore  *store.SessionStore
	identityStore *store.IdentityStore
	loginThrottle *middleware.LoginThrottle
	engine        *notify.Engine
	scheduler     *notify.Scheduler
	registry      *prometheus.Registry
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, mailer notify.Mailer, logger *slog.Logger) *Server {
	houseStore := store.NewHouseStore(db)
	identityStore := store.NewIdentityStore(db)
	userStore := store.NewUserStore(db)
	medicationStore := store.NewMedicationStore(db)
	historyStore := store.NewHistoryStore(db)
	notificationStore := store.NewNotificationStore(db)
	sessionStore := store.NewSessionStore(db)
	eventStore := store.NewEventStore(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	access := auth.NewEvaluator(userStore, houseStore, medicationStore)
	svc := inventory.NewService(access, inventory.Stores{
		Houses:      houseStore,
		Identities:  identityStore,
		Users:       userStore,
		Medications: medicationStore,
		History:     historyStore,
	}, cfg.Inventory, logger)

	events, err := notify.RestoreEventLog(notify.DefaultEventLogSize, eventStore, logger.With("component", "events"))
	if err != nil {
		logger.Error("restore notification events, keeping them in memory only", "error", err)
		events = notify.NewEventLog(notify.DefaultEventLogSize)
	}

	engine := notify.NewEngine(notify.Sources{
		Houses:        houseStore,
		Medications:   medicationStore,
		Recipients:    userStore,
		Notifications: notificationStore,
	}, mailer, events, notify.NewMetrics(registry), cfg.Notify, logger)

	throttle := middleware.NewLoginThrottle(loginFailureLimit, loginFailureWindow)

	return &Server{
		db:            db,
		houseH:        handler.NewHouseHandler(svc, logger.With("component", "house")),
		medicationH:   handler.NewMedicationHandler(svc, logger.With("component", "medication")),
		userH:         handler.NewUserHandler(svc, logger.With("component", "user")),
		notificationH: handler.NewNotificationHandler(engine, svc, access, logger.With("component", "notification")),
		sessionH:      handler.NewSessionHandler(identityStore, sessionStore, svc, access, throttle, cfg.SecureCookie, logger.With("component", "session")),
		sessionStore:  sessionStore,
		identityStore: identityStore,
		loginThrottle: throttle,
		engine:        engine,
		scheduler:     notify.NewScheduler(engine, logger),
		registry:      registry,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// LoginThrottle returns the failed-login tracker for cleanup tasks.
func (s *Server) LoginThrottle() *middleware.LoginThrottle {
	return s.loginThrottle
}

func (s *Server) Scheduler() *notify.Scheduler {
	return s.scheduler
}

func (s *Server) Engine() *notify.Engine {
	return s.engine
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(s.logger.With("component", "http")))
	r.Use(chimw.Recoverer)

	r.Get("/health", s.healthHandler)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.sessionH.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.sessionStore, s.identityStore, s.logger.With("component", "auth")))
			s.registerProtectedRoutes(r)
		})
	})
	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) registerProtectedRoutes(r chi.Router) {
	r.Post("/logout", s.sessionH.Logout)
	r.Get("/me", s.sessionH.Me)

	r.Get("/houses", s.houseH.List)
	r.Post("/houses", s.houseH.Create)
	r.Get("/houses/{id}", s.houseH.Get)
	r.Put("/houses/{id}", s.houseH.Update)
	r.Delete("/houses/{id}", s.houseH.Delete)

	r.Get("/medications", s.medicationH.List)
	r.Post("/medications", s.medicationH.Create)
	r.Get("/medications/{id}", s.medicationH.Get)
	r.Put("/medications/{id}", s.medicationH.Update)
	r.Delete("/medications/{id}", s.medicationH.Delete)
	r.Get("/medications/{id}/history", s.medicationH.History)

	r.Get("/users", s.userH.List)
	r.Post("/users", s.userH.Create)
	r.Get("/users/{id}", s.userH.Get)
	r.Put("/users/{id}", s.userH.Update)
	r.Delete("/users/{id}", s.userH.Delete)

	r.Get("/notifications", s.notificationH.List)
	r.Get("/notifications/unread-count", s.notificationH.UnreadCount)
	r.Post("/notifications/{id}/read", s.notificationH.MarkRead)
	r.Post("/notifications/test", s.notificationH.SendTest)
	r.Post("/notifications/run", s.notificationH.Run)
	r.Get("/notifications/logs", s.notificationH.Logs)
}
