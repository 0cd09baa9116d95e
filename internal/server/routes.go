package server

import (
	"net/http"

	"github.com/bobmcallan/papertrade/internal/handlers"
)

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	a := s.app
	requireAuth := handlers.RequireAuth(a.Accounts, s.logger)

	// Auth
	mux.HandleFunc("/api/auth/register", POST(a.AuthHandler.HandleRegister))
	mux.HandleFunc("/api/auth/login", POST(a.AuthHandler.HandleLogin))

	// Portfolio (bearer token)
	mux.Handle("/api/portfolio", requireAuth(GET(a.PortfolioHandler.HandleGet)))
	mux.Handle("/api/portfolio/trade", requireAuth(POST(a.PortfolioHandler.HandleTrade)))
	mux.Handle("/api/portfolio/trades", requireAuth(GET(a.PortfolioHandler.HandleTrades)))
	mux.Handle("/api/portfolio/summary", requireAuth(GET(a.PortfolioHandler.HandleSummary)))

	// Market data
	mux.HandleFunc("/api/stocks", a.StocksHandler.HandleList)
	mux.HandleFunc("/api/stocks/", a.StocksHandler.HandlePrice)

	// Operational
	mux.HandleFunc("/api/health", a.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/version", a.VersionHandler.ServeHTTP)
	mux.Handle("/metrics", a.Metrics.Handler())

	// Live price channel
	mux.Handle("/ws", a.WSHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	handlers.WriteError(w, http.StatusNotFound, "The requested endpoint does not exist")
}
