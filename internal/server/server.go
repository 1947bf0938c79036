package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"sales-drilldown/internal/handlers"
	"sales-drilldown/internal/services"
	"sales-drilldown/internal/session"
)

type Server struct {
	explorer      *services.Explorer
	sessions      *session.Manager
	mux           *http.ServeMux
	logger        *slog.Logger
	apiHandlers   *handlers.APIHandlers
	sseHandlers   *handlers.SSEHandlers
	chartHandlers *handlers.ChartHandlers
	pageHandlers  *handlers.PageHandlers
	helpHandler   *handlers.HelpHandler
}

func NewServer(explorer *services.Explorer, sessions *session.Manager, logger *slog.Logger) (*Server, error) {
	help, err := handlers.NewHelpHandler()
	if err != nil {
		return nil, fmt.Errorf("help page: %w", err)
	}

	s := &Server{
		explorer:      explorer,
		sessions:      sessions,
		mux:           http.NewServeMux(),
		logger:        logger,
		apiHandlers:   handlers.NewAPIHandlers(explorer, sessions, logger),
		sseHandlers:   handlers.NewSSEHandlers(explorer, logger),
		chartHandlers: handlers.NewChartHandlers(explorer, logger),
		pageHandlers:  handlers.NewPageHandlers(explorer, logger),
		helpHandler:   help,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	// Routes that do not touch navigation state skip the session cookie
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.Handle("GET /help", s.helpHandler)
	s.mux.HandleFunc("GET /api/regions", s.apiHandlers.HandleRegions)

	// Pages
	s.handle("GET /{$}", s.pageHandlers.HandleDashboard)
	s.handle("POST /session/end", s.apiHandlers.HandleEndSession)

	// REST API endpoints
	s.handle("GET /api/view", s.apiHandlers.HandleView)
	s.handle("POST /api/explore", s.apiHandlers.HandleExplore)
	s.handle("POST /api/back", s.apiHandlers.HandleBack)
	s.handle("POST /api/home", s.apiHandlers.HandleHome)

	// Datastar SSE endpoints
	s.handle("GET /sse/view", s.sseHandlers.HandleView)
	s.handle("POST /sse/explore", s.sseHandlers.HandleExplore)
	s.handle("POST /sse/back", s.sseHandlers.HandleBack)
	s.handle("POST /sse/home", s.sseHandlers.HandleHome)

	// Charts
	s.handle("GET /charts/sales.svg", s.chartHandlers.HandleSales)
	s.handle("GET /charts/share.svg", s.chartHandlers.HandleShare)
	s.handle("GET /charts/products.svg", s.chartHandlers.HandleProducts)
}

// handle registers a route that needs a session id in its context.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.sessions.Middleware(h))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
