package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hrd-community/hrd-backend/internal/health"
	"github.com/hrd-community/hrd-backend/internal/http/handler"
	"github.com/hrd-community/hrd-backend/internal/http/middleware"
	"github.com/hrd-community/hrd-backend/internal/http/response"
	"github.com/hrd-community/hrd-backend/internal/security"
)

type (
	GlobalRateLimiterFunc func(http.Handler) http.Handler
	AuthRateLimiterFunc   func(http.Handler) http.Handler
)

type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	OTPHandler        *handler.OTPHandler
	MembershipHandler *handler.MembershipHandler
	UserHandler       *handler.UserHandler
	PostHandler       *handler.PostHandler
	ContactHandler    *handler.ContactHandler
	AdminHandler      *handler.AdminHandler
	JWTManager        *security.JWTManager
	CORSOrigins       []string
	AuthRateLimitRPM  int
	APIRateLimitRPM   int
	GlobalRateLimiter GlobalRateLimiterFunc
	AuthRateLimiter   AuthRateLimiterFunc
	Readiness         *health.ProbeRunner
	EnableOTelHTTP    bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute, "api").Middleware())
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").Middleware()
	}
	requireAuth := middleware.AuthMiddleware(dep.JWTManager)
	optionalAuth := middleware.OptionalAuthMiddleware(dep.JWTManager)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter).Post("/register", dep.AuthHandler.Register)
			r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
			r.With(authLimiter).Post("/password/forgot", dep.AuthHandler.ForgotPassword)
			r.With(authLimiter).Post("/password/reset", dep.AuthHandler.ResetPassword)
			r.With(requireAuth).Post("/logout", dep.AuthHandler.Logout)
			r.With(requireAuth, authLimiter).Post("/password/change", dep.AuthHandler.ChangePassword)
		})

		r.Route("/otp", func(r chi.Router) {
			r.Use(authLimiter)
			r.Post("/start", dep.OTPHandler.Start)
			r.Post("/verify", dep.OTPHandler.Verify)
		})

		r.Route("/membership", func(r chi.Router) {
			r.With(authLimiter).Post("/apply", dep.MembershipHandler.Apply)
			r.With(authLimiter).Post("/lookup", dep.MembershipHandler.Lookup)
			r.Post("/generate", dep.MembershipHandler.Generate)
			r.With(requireAuth).Get("/me", dep.MembershipHandler.Mine)
		})

		r.With(requireAuth).Get("/me", dep.UserHandler.Me)
		r.With(requireAuth).Patch("/me", dep.UserHandler.UpdateMe)
		r.With(requireAuth).Post("/me/membership", dep.MembershipHandler.EnsureMine)

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", dep.PostHandler.List)
			r.With(optionalAuth).Get("/{id}", dep.PostHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", dep.PostHandler.Create)
				r.Patch("/{id}", dep.PostHandler.Update)
				r.Delete("/{id}", dep.PostHandler.Delete)
			})
		})

		r.Post("/contact", dep.ContactHandler.Submit)

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RequireAdmin)
			r.Get("/stats", dep.AdminHandler.Stats)
			r.Get("/users", dep.AdminHandler.ListUsers)
			r.Get("/posts", dep.AdminHandler.ListPosts)
			r.Patch("/posts/{id}/status", dep.AdminHandler.ModeratePost)
			r.Get("/contact", dep.AdminHandler.ListContacts)
			r.Patch("/contact/{id}/status", dep.AdminHandler.UpdateContactStatus)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
