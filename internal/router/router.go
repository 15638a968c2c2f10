package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinebook/internal/config"
	"github.com/iliyamo/cinebook/internal/handler"
	"github.com/iliyamo/cinebook/internal/middleware"
	"github.com/iliyamo/cinebook/internal/model"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Auth     *handler.AuthHandler
	Bookings *handler.BookingHandler
	Movies   *handler.MovieHandler
	Reviews  *handler.ReviewHandler
	TMDB     *handler.TMDBHandler
	Ready    echo.HandlerFunc
	Verifier middleware.SessionVerifier
}

// Options carries the Redis-backed middleware settings.  A nil Redis
// client turns rate limiting and caching into pass-through.
type Options struct {
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
}

// RegisterRoutes registers probes and the status document.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/", handler.Status)
	e.GET("/healthz", handler.Health)
	if h.Ready != nil {
		e.GET("/readyz", h.Ready)
	}
}

// RegisterAPI mounts every /api endpoint.  Auth routes are rate limited,
// catalog proxy routes are cached, admin routes need an ADMIN session.
func RegisterAPI(e *echo.Echo, h Handlers, opt Options) {
	api := e.Group("/api")
	jwt := middleware.JWTAuth(h.Verifier)
	admin := middleware.RequireRole(model.RoleAdmin)

	auth := api.Group("/auth", middleware.NewTokenBucket(opt.RateLimit, opt.Redis))
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/forgot-password", h.Auth.ForgotPassword)
	auth.POST("/reset-password/:token", h.Auth.ResetPassword)
	api.GET("/auth/me", h.Auth.Me, jwt)

	api.GET("/me/bookings", h.Bookings.Mine, jwt)
	api.POST("/bookings", h.Bookings.Create)
	api.GET("/bookings", h.Bookings.List, jwt, admin)

	api.GET("/movies", h.Movies.List)
	api.POST("/movies", h.Movies.Create, jwt, admin)
	api.DELETE("/movies/:id", h.Movies.Delete, jwt, admin)

	api.GET("/reviews/:movieId", h.Reviews.List)
	api.POST("/reviews", h.Reviews.Create, jwt)

	tm := api.Group("/tmdb", middleware.NewRedisCache(opt.Cache, opt.Redis))
	tm.GET("/search", h.TMDB.Search)
	tm.GET("/popular", h.TMDB.Popular)
	tm.GET("/movie/:id", h.TMDB.Details)
	tm.GET("/movie/:id/credits", h.TMDB.Credits)
	tm.GET("/movie/:id/videos", h.TMDB.Videos)
}
