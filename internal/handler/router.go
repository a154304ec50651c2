package handler

import (
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/kou-oishi/Elogbook-Backend/docs/swagger"
	"github.com/kou-oishi/Elogbook-Backend/internal/api"
)

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	SessionManager *scs.SessionManager
	AllowedOrigins []string
	API            api.Deps
}

// NewRouter assembles the full chi router with all middleware and routes.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: !allowsAnyOrigin(deps.AllowedOrigins),
		MaxAge:           3600,
	}))
	r.Use(deps.SessionManager.LoadAndSave)

	r.Get("/healthz", Health)
	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI
	r.Get("/api/docs/*", httpSwagger.WrapHandler)

	deps.API.Sessions = deps.SessionManager
	r.Mount("/", api.NewAPIRouter(deps.API))

	return r
}

// allowsAnyOrigin reports whether origins contains the "*" wildcard.
// Browsers reject credentialed responses to a wildcard origin.
func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
