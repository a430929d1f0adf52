package handler

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sloghttp "github.com/samber/slog-http"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/pinjam-app/pinjam/internal/api"
	_ "github.com/pinjam-app/pinjam/internal/api/docs"
	"github.com/pinjam-app/pinjam/internal/auth"
	"github.com/pinjam-app/pinjam/internal/notify"
	"github.com/pinjam-app/pinjam/internal/store"
	"github.com/pinjam-app/pinjam/web"
)

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	Logger         *slog.Logger
	SessionManager *scs.SessionManager
	AuthHandlers   *auth.Handlers
	AuthMiddleware *auth.Middleware
	UserStore      *store.UserStore
	ItemStore      *store.ItemStore
	LoanStore      *store.LoanStore
	Notifications  *store.NotificationStore
	Hub            *notify.Hub
	// Live serves /live. It hijacks the connection, so it is mounted
	// outside the session and request-logging middleware.
	Live    http.Handler
	OrgName string
}

// NewRouter assembles the full chi router with all middleware and routes.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if deps.Live != nil {
		r.Handle("/live", deps.Live)
	}

	chrome := NewChrome(deps.SessionManager, deps.Notifications, deps.OrgName)
	landing := NewLandingHandler(deps.ItemStore, chrome)
	accounts := NewAccountHandler(deps.AuthHandlers, chrome)
	catalog := NewCatalogHandler(deps.ItemStore, deps.LoanStore, chrome)
	dashboard := NewDashboardHandler(deps.LoanStore, deps.Notifications, deps.Hub, chrome)
	profile := NewProfileHandler(deps.LoanStore, chrome)
	admin := NewAdminHandler(deps.ItemStore, deps.UserStore, deps.LoanStore, deps.Notifications, deps.Hub, chrome)
	theme := NewThemeHandler()

	withSession := func(h http.Handler) http.Handler {
		return sloghttp.New(logger)(deps.SessionManager.LoadAndSave(deps.AuthMiddleware.OptionalUser(h)))
	}
	r.NotFound(withSession(http.HandlerFunc(landing.NotFound)).ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(sloghttp.New(logger))
		r.Use(deps.SessionManager.LoadAndSave)

		// Use fs.Sub so the file server sees css/app.css and js/live.js
		// directly, not static/css/... paths.
		staticSub, err := fs.Sub(web.StaticFS, "static")
		if err != nil {
			panic("failed to sub static FS: " + err.Error())
		}
		r.Handle("/static/*", http.StripPrefix("/static", http.FileServerFS(staticSub)))
		r.Handle("/metrics", promhttp.Handler())
		r.Post("/theme", theme.Toggle)

		r.Get("/auth/oidc/login", deps.AuthHandlers.OIDCLogin)
		r.Get("/auth/oidc/callback", deps.AuthHandlers.Callback)

		// Public layout. OptionalUser lets pages redirect or adapt for
		// signed-in visitors.
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.OptionalUser)
			r.Get("/", landing.Index)
			r.Get("/tentang", landing.About)
			r.Get("/katalog", catalog.Index)
			r.Get("/katalog/{id}", catalog.Detail)
			r.Get("/login", accounts.LoginForm)
			r.Post("/login", accounts.Login)
			r.Get("/register", accounts.RegisterForm)
			r.Post("/register", accounts.Register)
			r.Post("/logout", deps.AuthHandlers.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Post("/katalog/{id}/pinjam", catalog.Borrow)
			r.Get("/dashboard", dashboard.Show)
			r.Get("/profile", profile.Show)
			r.With(deps.AuthMiddleware.RequireRole(store.RoleUser)).Get("/notifications", dashboard.Notifications)
		})

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Use(deps.AuthMiddleware.RequireRole(store.RoleAdmin))
			r.Get("/admin/dashboard", admin.Dashboard)
			r.Get("/admin/loans", admin.Loans)
			r.Post("/admin/loans/{id}/approve", admin.Approve)
			r.Post("/admin/loans/{id}/reject", admin.Reject)
			r.Post("/admin/loans/{id}/return", admin.Return)
			r.Get("/admin/users", admin.Users)
			r.Post("/admin/users/{id}/role", admin.UpdateRole)
		})

		r.Get("/api/docs/*", httpSwagger.WrapHandler)
		r.Mount("/api/v1", api.NewRouter(api.Deps{
			AuthMiddleware: deps.AuthMiddleware,
			Notifications:  deps.Notifications,
			OrgName:        deps.OrgName,
		}))
	})

	return r
}
