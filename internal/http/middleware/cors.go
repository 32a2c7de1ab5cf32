// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// CORS enforces the browser-origin allow-list. Requests without an Origin
// header (curl, server-to-server) pass untouched. A request carrying an
// Origin outside the list is refused with a JSON 403 before it reaches any
// route; allowed origins get their CORS response headers from
// github.com/gin-contrib/cors.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSOptions configures CORS.
type CORSOptions struct {
	// AllowedOrigins lists exact origins (scheme://host[:port]). A "*" entry
	// allows every origin.
	AllowedOrigins []string
	// ExposeHeaders are readable by browser scripts in addition to
	// X-Request-ID.
	ExposeHeaders []string
	// MaxAge caches preflight results. Defaults to 12h.
	MaxAge time.Duration
}

// CORS returns the origin guard combined with gin-contrib/cors.
func CORS(opts CORSOptions) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(opts.AllowedOrigins))
	origins := make([]string, 0, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
			continue
		case "*":
			allowAll = true
		default:
			allowed[o] = struct{}{}
			origins = append(origins, o)
		}
	}

	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = 12 * time.Hour
	}

	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "If-None-Match", requestIDHeader, HeaderIdempotencyKey},
		ExposeHeaders: append([]string{requestIDHeader}, opts.ExposeHeaders...),
		MaxAge:        maxAge,
	}
	if allowAll || len(origins) == 0 {
		// gin-contrib/cors refuses an empty config; an empty list only
		// arises together with allowAll or when nothing is allowed at all.
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	apply := cors.New(cfg)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		if _, ok := allowed[origin]; !ok && !allowAll {
			LoggerFrom(c).Warn().Str("origin", origin).Msg("origin rejected")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "cors_rejected",
				"message":    "origin not allowed",
			})
			return
		}
		apply(c)
		if !c.IsAborted() {
			c.Next()
		}
	}
}
