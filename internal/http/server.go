package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"fatture/internal/cache"
	"fatture/internal/core"
	"fatture/internal/log"
	"fatture/internal/services"
	appweb "fatture/web"
)

type Server struct {
	http.Server
	templates *template.Template
	invoices  *services.InvoiceService
	dashboard *services.DashboardService

	limiter *throttle
	metrics *securityMetrics

	// Read caches keyed by filter/page; mutations invalidate them.
	cardsCache     *cache.LRUCache[core.CardData]
	revenueCache   *cache.LRUCache[[]core.Revenue]
	latestCache    *cache.LRUCache[[]core.LatestInvoice]
	invoicesCache  *cache.LRUCache[invoicePage]
	customersCache *cache.LRUCache[[]core.CustomerRow]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// invoicePage bundles one page of invoice rows with the total page count so
// both render from a single cache entry.
type invoicePage struct {
	Rows  []core.InvoiceRow
	Pages int
	Page  int
	Query string
}

const (
	cardsKey   = "cards"
	revenueKey = "revenue"
	latestKey  = "latest"
)

// NewServer configures routes and templates, returning a ready-to-run
// http.Server. A template parse failure is a startup error: without the
// embedded templates every partial handler is broken.
func NewServer(addr string, invoices *services.InvoiceService, dashboard *services.DashboardService) (*Server, error) {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		invoices:  invoices,
		dashboard: dashboard,
		limiter:   newThrottle(60, time.Minute),
		metrics:   &securityMetrics{},

		cardsCache:     cache.NewLRU[core.CardData](1, 1*time.Minute),
		revenueCache:   cache.NewLRU[[]core.Revenue](1, 5*time.Minute),
		latestCache:    cache.NewLRU[[]core.LatestInvoice](1, 1*time.Minute),
		invoicesCache:  cache.NewLRU[invoicePage](200, 2*time.Minute),
		customersCache: cache.NewLRU[[]core.CustomerRow](100, 2*time.Minute),

		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	// Parse embedded templates at startup. "seq" feeds the pagination loop.
	funcs := template.FuncMap{
		"seq": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i + 1
			}
			return out
		},
	}
	t, err := template.New("").Funcs(funcs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		close(s.stopCacheCleanup)
		s.limiter.stop()
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	// Invoice mutations
	mux.HandleFunc("/invoices", s.withSecurityHeaders(s.handleCreateInvoice))
	mux.HandleFunc("/invoices/update", s.withSecurityHeaders(s.handleUpdateInvoice))
	mux.HandleFunc("/invoices/delete", s.withSecurityHeaders(s.handleDeleteInvoice))

	// UI partials
	mux.HandleFunc("/ui/cards", s.withSecurityHeaders(s.handleCards))
	mux.HandleFunc("/ui/revenue", s.withSecurityHeaders(s.handleRevenue))
	mux.HandleFunc("/ui/latest-invoices", s.withSecurityHeaders(s.handleLatestInvoices))
	mux.HandleFunc("/ui/invoices", s.withSecurityHeaders(s.handleInvoicesTable))
	mux.HandleFunc("/ui/invoice-form", s.withSecurityHeaders(s.handleInvoiceForm))
	mux.HandleFunc("/ui/customers", s.withSecurityHeaders(s.handleCustomersTable))

	return s, nil
}

// withSecurityHeaders adds security headers, rate limiting and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		atomic.AddInt64(&s.metrics.requestsTotal, 1)

		slog.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutations only; partial refreshes stay cheap
		if r.Method != http.MethodGet && !s.limiter.allow(clientIP) {
			atomic.AddInt64(&s.metrics.rateLimitHits, 1)
			slog.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		if rw.statusCode >= 500 {
			atomic.AddInt64(&s.metrics.errorResponses, 1)
		}

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// startCacheCleanup runs periodic cleanup for the read caches.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := s.cardsCache.CleanExpired() +
				s.revenueCache.CleanExpired() +
				s.latestCache.CleanExpired() +
				s.invoicesCache.CleanExpired() +
				s.customersCache.CleanExpired()
			if cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// invalidateAfterMutation drops every cached read that could contain the
// touched invoice: any invoice page, the summary cards, the latest list and
// the customer aggregates.
func (s *Server) invalidateAfterMutation() {
	s.cardsCache.Delete(cardsKey)
	s.latestCache.Delete(latestKey)
	s.invoicesCache.Purge()
	s.customersCache.Purge()
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.limiter != nil {
			s.limiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
