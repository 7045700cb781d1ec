package server

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aryansanganti/receipt-wallet/internal/analytics"
	"github.com/aryansanganti/receipt-wallet/internal/assistant"
	"github.com/aryansanganti/receipt-wallet/internal/receipt"
	"github.com/aryansanganti/receipt-wallet/internal/wallet"
)

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// Server handles HTTP requests for receipts, analytics, the assistant and
// wallet passes
type Server struct {
	receipts  *receipt.Service
	engine    *analytics.Engine
	insights  *analytics.Generator
	router    *assistant.Router
	passes    *wallet.Manager
	basicAuth BasicAuth
	mux       *http.ServeMux
	clock     func() time.Time
}

// NewServer creates a new Server with default mux
func NewServer(receipts *receipt.Service, engine *analytics.Engine, insights *analytics.Generator, router *assistant.Router, passes *wallet.Manager, basicAuth BasicAuth) *Server {
	return NewServerWithMux(receipts, engine, insights, router, passes, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(receipts *receipt.Service, engine *analytics.Engine, insights *analytics.Generator, router *assistant.Router, passes *wallet.Manager, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		receipts:  receipts,
		engine:    engine,
		insights:  insights,
		router:    router,
		passes:    passes,
		basicAuth: basicAuth,
		mux:       mux,
		clock:     time.Now,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}

	return credentials[0] == s.basicAuth.Username && credentials[1] == s.basicAuth.Password
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			// Ensure CORS headers are set before error response
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="Receipt Wallet"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux
// Routes must be registered from most specific to least specific to avoid conflicts
func (s *Server) registerRoutes() {
	// API endpoints - receipts (most specific paths first)
	s.mux.HandleFunc("GET /api/receipts/{id}/image", s.requireAuth(s.handleGetReceiptImage))
	s.mux.HandleFunc("GET /api/receipts/{id}", s.requireAuth(s.handleGetReceipt))
	s.mux.HandleFunc("GET /api/receipts", s.requireAuth(s.handleListReceipts))
	s.mux.HandleFunc("POST /api/receipts", s.requireAuth(s.handleUploadReceipt))

	// API endpoints - analytics and assistant
	s.mux.HandleFunc("GET /api/analytics", s.requireAuth(s.handleAnalytics))
	s.mux.HandleFunc("POST /api/ask", s.requireAuth(s.handleAsk))

	// API endpoints - wallet passes
	s.mux.HandleFunc("POST /api/passes/{id}/issue", s.requireAuth(s.handleIssuePass))
	s.mux.HandleFunc("POST /api/passes/{id}/expire", s.requireAuth(s.handleExpirePass))
	s.mux.HandleFunc("GET /api/passes/{id}", s.requireAuth(s.handleGetPass))
	s.mux.HandleFunc("DELETE /api/passes/{id}", s.requireAuth(s.handleDeletePass))
	s.mux.HandleFunc("GET /api/passes", s.requireAuth(s.handleListPasses))
	s.mux.HandleFunc("POST /api/passes", s.requireAuth(s.handleCreatePass))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	// Wrap the mux with CORS middleware to handle all requests including OPTIONS
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		})(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
