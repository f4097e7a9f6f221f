package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/alerthub/internal/engine"
	apimw "github.com/hamed0406/alerthub/internal/httpapi/middleware"
)

type Server struct {
	Logger *zap.Logger
	Engine *engine.Engine
}

func NewServer(l *zap.Logger, e *engine.Engine) *Server {
	return &Server{Logger: l, Engine: e}
}

// Router wires the admin and user surfaces. Admin routes need an admin
// API key; user routes accept either key class. Every route under /api
// carries an X-User-ID identifying the acting user.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, pubRPM, pubBurst, admRPM, admBurst int) http.Handler {
	r := chi.NewRouter()
	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key", "X-User-ID"},
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apimw.Identity)

		r.Group(func(r chi.Router) {
			r.Use(apimw.RequireAdmin(keys))
			r.Use(apimw.RateLimit(admRPM, admBurst))

			r.Get("/admin/alerts", s.handleListAlerts)
			r.Post("/admin/alerts", s.handleCreateAlert)
			r.Get("/admin/alerts/{id}", s.handleGetAlert)
			r.Put("/admin/alerts/{id}", s.handleUpdateAlert)
			r.Delete("/admin/alerts/{id}", s.handleArchiveAlert)
			r.Post("/admin/trigger-reminders", s.handleTriggerReminders)
			r.Get("/admin/analytics", s.handleAnalytics)
		})

		r.Group(func(r chi.Router) {
			r.Use(apimw.RequireAny(keys))
			r.Use(apimw.RateLimit(pubRPM, pubBurst))

			r.Get("/user/alerts", s.handleUserAlerts)
			r.Post("/user/alerts/{id}/snooze", s.handleSnoozeAlert)
			r.Post("/user/alerts/{id}/read", s.handleMarkAlertRead)
			r.Get("/user/preferences", s.handleUserPreferences)
		})
	})

	return r
}
