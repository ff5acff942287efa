package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/psiclinic/platform/internal/auth"
	"github.com/psiclinic/platform/internal/compliance"
	httpmiddleware "github.com/psiclinic/platform/internal/http/middleware"
	"github.com/psiclinic/platform/internal/identity"
	"github.com/psiclinic/platform/internal/intake"
	"github.com/psiclinic/platform/internal/notes"
	"github.com/psiclinic/platform/internal/notifications"
	"github.com/psiclinic/platform/internal/patients"
	"github.com/psiclinic/platform/internal/reports"
	"github.com/psiclinic/platform/internal/sessions"
	"github.com/psiclinic/platform/internal/sessiontypes"
	"github.com/psiclinic/platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger               *logging.Logger
	TokenIssuer          *auth.TokenIssuer
	AuthHandler          *auth.Handler
	PatientsHandler      *patients.Handler
	SessionTypesHandler  *sessiontypes.Handler
	SessionsHandler      *sessions.Handler
	NotificationsHandler *notifications.Handler
	IntakeHandler        *intake.Handler
	NotesHandler         *notes.Handler
	AuditHandler         *compliance.Handler
	ReportsHandler       *reports.Handler
	MetricsHandler       http.Handler
	CORSAllowedOrigins   []string

	// Requests per second allowed per client IP on the intake and auth
	// endpoints. Zero disables the limiter.
	IntakeRateLimit float64
	IntakeRateBurst int
	AuthRateLimit   float64
	AuthRateBurst   int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AuthHandler != nil {
			public.Route("/auth", func(r chi.Router) {
				if cfg.AuthRateLimit > 0 {
					r.Use(httpmiddleware.RateLimit(cfg.AuthRateLimit, cfg.AuthRateBurst))
				}
				r.Post("/login", cfg.AuthHandler.Login)
				r.Post("/register", cfg.AuthHandler.Register)
				r.Post("/reset-password", cfg.AuthHandler.ResetPassword)
			})
			public.Get("/professionals", cfg.AuthHandler.ListProfessionals)
		}
	})

	// Everything below requires a valid token.
	r.Group(func(authed chi.Router) {
		authed.Use(auth.RequireAuth(cfg.TokenIssuer))

		if cfg.SessionsHandler != nil {
			authed.Get("/availability", cfg.SessionsHandler.Availability)
			authed.Route("/sessions", func(r chi.Router) {
				r.Post("/", cfg.SessionsHandler.Book)
				r.Get("/", cfg.SessionsHandler.List)
				r.Post("/{id}/cancel", cfg.SessionsHandler.Cancel)
			})
		}

		if cfg.NotificationsHandler != nil {
			authed.Route("/notifications", func(r chi.Router) {
				r.Get("/", cfg.NotificationsHandler.List)
				r.Post("/{id}/read", cfg.NotificationsHandler.MarkRead)
				r.Post("/read-all", cfg.NotificationsHandler.MarkAllRead)
			})
		}

		if cfg.SessionTypesHandler != nil {
			authed.Get("/session-types", cfg.SessionTypesHandler.List)
			authed.Get("/session-types/{id}", cfg.SessionTypesHandler.Get)
		}

		// Professional-only routes.
		authed.Group(func(prof chi.Router) {
			prof.Use(auth.RequireRole(identity.RoleProfessional))

			if cfg.SessionTypesHandler != nil {
				prof.Post("/session-types", cfg.SessionTypesHandler.Create)
				prof.Put("/session-types/{id}", cfg.SessionTypesHandler.Update)
				prof.Delete("/session-types/{id}", cfg.SessionTypesHandler.Delete)
			}

			if cfg.PatientsHandler != nil {
				prof.Route("/patients", func(r chi.Router) {
					r.Post("/", cfg.PatientsHandler.Create)
					r.Get("/", cfg.PatientsHandler.List)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", cfg.PatientsHandler.Get)
						r.Put("/", cfg.PatientsHandler.Update)
						r.Delete("/", cfg.PatientsHandler.Delete)
						if cfg.NotesHandler != nil {
							r.Post("/notes", cfg.NotesHandler.Create)
							r.Get("/notes", cfg.NotesHandler.ListByPatient)
							r.Get("/notes/summary", cfg.NotesHandler.Summarize)
						}
						if cfg.AuditHandler != nil {
							r.Get("/audit", cfg.AuditHandler.ListByPatient)
						}
						if cfg.IntakeHandler != nil {
							r.Get("/intake", cfg.IntakeHandler.GetPatientTranscript)
						}
					})
				})
			}

			if cfg.NotesHandler != nil {
				prof.Put("/notes/{id}", cfg.NotesHandler.Update)
				prof.Delete("/notes/{id}", cfg.NotesHandler.Delete)
			}

			if cfg.SessionsHandler != nil {
				prof.Post("/sessions/{id}/complete", cfg.SessionsHandler.Complete)
				prof.Post("/sessions/{id}/no-show", cfg.SessionsHandler.MarkNoShow)
				prof.Post("/sessions/{id}/paid", cfg.SessionsHandler.MarkPaid)
			}

			if cfg.ReportsHandler != nil {
				prof.Get("/reports/stats", cfg.ReportsHandler.GetStats)
				prof.Get("/reports/dashboard", cfg.ReportsHandler.GetDashboard)
			}
		})

		// Patient-only routes.
		authed.Group(func(patient chi.Router) {
			patient.Use(auth.RequireRole(identity.RolePatient))

			if cfg.PatientsHandler != nil {
				patient.Get("/me/profile", cfg.PatientsHandler.GetOwnProfile)
			}

			if cfg.IntakeHandler != nil {
				patient.Route("/intake", func(r chi.Router) {
					if cfg.IntakeRateLimit > 0 {
						r.Use(httpmiddleware.RateLimit(cfg.IntakeRateLimit, cfg.IntakeRateBurst))
					}
					r.Post("/messages", cfg.IntakeHandler.PostMessage)
					r.Get("/transcript", cfg.IntakeHandler.GetTranscript)
					r.Get("/chat", cfg.IntakeHandler.Chat)
				})
			}
		})
	})

	return r
}
