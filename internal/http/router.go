// Package httpapi wires the HTTP transport (Gin) to the movie service,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, idempotency, rate limiting and security headers.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-movies-api/docs"
	"github.com/tbourn/go-movies-api/internal/config"
	"github.com/tbourn/go-movies-api/internal/http/handlers"
	"github.com/tbourn/go-movies-api/internal/http/middleware"
	"github.com/tbourn/go-movies-api/internal/repo"
)

// idempotencyScope must match the scope the movie service records keys under.
const idempotencyScope = "movies"

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the movie routes under cfg.APIBasePath. db holds
// idempotency records and may be nil, in which case replays are never
// detected up front.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. CORS: disallowed origins are rejected before any other work
//  6. Body size limiter
//  7. Gzip
//  8. Metrics
//  9. Idempotency validator (before rate limiter to allow bypass on replay)
//  10. Rate limiter (per IP, bypass on replay)
//  11. Security headers
func RegisterRoutes(r *gin.Engine, svc handlers.MovieService, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(middleware.CORSOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		ExposeHeaders:  []string{"ETag", handlers.HeaderReplayed, "Retry-After"},
	}))
	r.Use(limitBody(cfg.MaxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(middleware.Metrics("/metrics"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idempotencyLookup(db)))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(svc)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/movies", h.ListMovies)
		api.POST("/movies", h.CreateMovie)
		api.GET("/movies/:id", h.GetMovie)
		api.PATCH("/movies/:id", h.UpdateMovie)
		api.DELETE("/movies/:id", h.DeleteMovie)
	}
}

// idempotencyLookup reports whether key already has a live record.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	if db == nil {
		return nil
	}
	return func(ctx context.Context, key string, now time.Time) (bool, error) {
		rec, err := repo.GetIdempotency(ctx, db, idempotencyScope, key, now)
		if err != nil || rec == nil {
			return false, nil
		}
		return true, nil
	}
}

// limitBody caps the request body at maxBytes using http.MaxBytesReader.
// Reads beyond the cap fail with *http.MaxBytesError. maxBytes <= 0 disables
// the cap.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
