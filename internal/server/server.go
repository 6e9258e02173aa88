// Package server is the thin message router between execution contexts:
// it carries JSON action requests to the store-side service and returns
// their responses. No domain logic lives here.
package server

import (
	"net/http"

	"github.com/linkmark/linkmark/internal/app"
)

// Server routes message actions to the service.
type Server struct {
	router  *http.ServeMux
	service *app.Service
}

// New creates a router over svc.
func New(svc *app.Service) *Server {
	s := &Server{
		router:  http.NewServeMux(),
		service: svc,
	}
	s.router.HandleFunc("/message", s.handleMessage)
	return s
}

// Handler returns the HTTP handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr until the listener fails.
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.router)
}
