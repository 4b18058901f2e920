package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"bookshelf/internal/handler"
	"bookshelf/internal/httputil"
	authmw "bookshelf/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	LibraryHandler *handler.LibraryHandler
	SocialHandler  *handler.SocialHandler
	StatsHandler   *handler.StatsHandler
	CatalogHandler *handler.CatalogHandler
	JWTSecret      string
	CORSOrigins    []string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "bookshelf.http")
	})

	optional := authmw.OptionalAuth(cfg.JWTSecret)
	required := authmw.AuthMiddleware(cfg.JWTSecret)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/auth/session", cfg.AuthHandler.CreateSession)
	r.Get("/api/aladin/search", cfg.CatalogHandler.Search)

	r.Route("/users", func(r chi.Router) {
		r.Get("/check-id", cfg.UserHandler.CheckUserID)
		r.Get("/check-nickname", cfg.UserHandler.CheckNickname)

		// Signup needs a verified identity but no profile yet.
		r.With(required).Post("/", cfg.UserHandler.Create)

		r.Group(func(r chi.Router) {
			r.Use(optional)
			r.Get("/{userId}", cfg.UserHandler.GetProfile)
			r.Get("/{userId}/books", cfg.LibraryHandler.ListLibrary)
			r.Get("/{userId}/followers", cfg.SocialHandler.GetFollowers)
			r.Get("/{userId}/followings", cfg.SocialHandler.GetFollowings)
		})

		r.Group(func(r chi.Router) {
			r.Use(required, authmw.RequireProfile)
			r.Post("/{userId}/follow", cfg.SocialHandler.Follow)
			r.Delete("/{userId}/follow", cfg.SocialHandler.Unfollow)
		})
	})

	r.Route("/books", func(r chi.Router) {
		r.Get("/recent", cfg.LibraryHandler.RecentBooks)
		r.Get("/{isbn}", cfg.LibraryHandler.GetBook)
		r.Get("/{isbn}/stats", cfg.StatsHandler.GetBookStats)
		r.With(required, authmw.RequireProfile).Post("/", cfg.LibraryHandler.Register)
	})

	r.Route("/user-books/{id}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optional)
			r.Get("/", cfg.LibraryHandler.GetUserBook)
			r.Get("/likes", cfg.SocialHandler.ListLikes)
		})

		r.Group(func(r chi.Router) {
			r.Use(required, authmw.RequireProfile)
			r.Patch("/", cfg.LibraryHandler.UpdateUserBook)
			r.Delete("/", cfg.LibraryHandler.DeleteUserBook)
			r.Post("/like", cfg.SocialHandler.Like)
			r.Delete("/like", cfg.SocialHandler.Unlike)
		})
	})

	r.Route("/stats", func(r chi.Router) {
		r.Get("/popular", cfg.StatsHandler.Popular)
		r.Get("/top-rated", cfg.StatsHandler.TopRated)
	})

	// Protected routes - require a token carrying a profile
	r.Group(func(r chi.Router) {
		r.Use(required, authmw.RequireProfile)

		r.Get("/me", cfg.UserHandler.GetMe)
		r.Patch("/me", cfg.UserHandler.UpdateMe)
		r.Post("/me/photo", cfg.UserHandler.UpdatePhoto)
		r.Get("/me/bookmarks", cfg.SocialHandler.ListBookmarks)

		r.Post("/bookmarks/{isbn}", cfg.SocialHandler.Bookmark)
		r.Delete("/bookmarks/{isbn}", cfg.SocialHandler.Unbookmark)
	})

	return r
}
