// Package auth guards the HTTP surface: API-key roles, optional IP
// whitelisting, CORS, and a per-client token-bucket rate limit.
package auth

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"reciprodb/pkg/logger"
	"reciprodb/pkg/utils"
)

// Roles attached to a request after key resolution.
const (
	RoleFrontend = "frontend"
	RoleBackend  = "backend"
	RoleAdmin    = "admin"
)

// SecConfig carries the security posture resolved from config and env.
type SecConfig struct {
	AllowedOrigins []string
	AllowedIPs     []string
	FrontendKeys   map[string]struct{}
	BackendKeys    map[string]struct{}
	AdminKeys      map[string]struct{}
	RatePerSec     float64
	RateBurst      int
	AllowUnauth    bool
}

type limiterPool struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	r        rate.Limit
	burst    int
}

func newLimiterPool(perSec float64, burst int) *limiterPool {
	if perSec <= 0 {
		perSec = 50
	}
	if burst <= 0 {
		burst = 100
	}
	return &limiterPool{
		limiters: make(map[string]*rate.Limiter),
		r:        rate.Limit(perSec),
		burst:    burst,
	}
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.limiters[key]; ok {
		return l
	}
	l := rate.NewLimiter(p.r, p.burst)
	p.limiters[key] = l
	return l
}

type ctxKey string

// RoleKey is the request-context key holding the resolved role.
const RoleKey ctxKey = "auth.role"

// RoleFromRequest returns the role resolved for r, or "" when the
// request passed through unauthenticated.
func RoleFromRequest(r *http.Request) string {
	if v, ok := r.Context().Value(RoleKey).(string); ok {
		return v
	}
	return ""
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func bearerKey(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.Header.Get("X-API-Key")
}

func (c *SecConfig) resolveRole(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	if _, ok := c.AdminKeys[key]; ok {
		return RoleAdmin, true
	}
	if _, ok := c.BackendKeys[key]; ok {
		return RoleBackend, true
	}
	if _, ok := c.FrontendKeys[key]; ok {
		return RoleFrontend, true
	}
	return "", false
}

func (c *SecConfig) ipAllowed(ip string) bool {
	if len(c.AllowedIPs) == 0 {
		return true
	}
	for _, a := range c.AllowedIPs {
		if a == ip || a == "*" {
			return true
		}
		if _, cidr, err := net.ParseCIDR(a); err == nil {
			if p := net.ParseIP(ip); p != nil && cidr.Contains(p) {
				return true
			}
		}
	}
	return false
}

func (c *SecConfig) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key, X-User-ID")
			w.Header().Set("Vary", "Origin")
			return
		}
	}
}

// AuthenticateRequestMiddleware enforces the security posture on every
// request: IP whitelist, CORS preflight, API-key role resolution, and
// per-client rate limiting. Health and metrics paths pass through.
func AuthenticateRequestMiddleware(cfg *SecConfig) func(http.Handler) http.Handler {
	pool := newLimiterPool(cfg.RatePerSec, cfg.RateBurst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cfg.applyCORS(w, r)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			switch r.URL.Path {
			case "/healthz", "/readyz", "/metrics":
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			if !cfg.ipAllowed(ip) {
				logger.Warn("request_ip_rejected", "ip", ip, "path", r.URL.Path)
				utils.JSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			if !pool.get(ip).Allow() {
				utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			role, ok := cfg.resolveRole(bearerKey(r))
			if !ok && !cfg.AllowUnauth {
				utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if ok {
				r = r.WithContext(context.WithValue(r.Context(), RoleKey, role))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin wraps admin-only handlers.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if RoleFromRequest(r) != RoleAdmin {
			utils.JSONError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r)
	}
}
