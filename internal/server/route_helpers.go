package server

import (
	"net/http"

	"github.com/bobmcallan/papertrade/internal/handlers"
)

// RouteHandler is a function type for HTTP handlers.
type RouteHandler func(http.ResponseWriter, *http.Request)

// MethodRouter maps HTTP methods to handlers.
type MethodRouter map[string]RouteHandler

// RouteByMethod routes requests based on HTTP method. HEAD falls back to
// the GET handler.
func RouteByMethod(w http.ResponseWriter, r *http.Request, routes MethodRouter) {
	handler, ok := routes[r.Method]
	if !ok && r.Method == http.MethodHead {
		handler, ok = routes[http.MethodGet]
	}
	if !ok {
		handlers.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	handler(w, r)
}

// methods builds a handler from a MethodRouter.
func methods(routes MethodRouter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RouteByMethod(w, r, routes)
	}
}

// GET restricts h to GET (and HEAD).
func GET(h RouteHandler) http.HandlerFunc {
	return methods(MethodRouter{http.MethodGet: h})
}

// POST restricts h to POST.
func POST(h RouteHandler) http.HandlerFunc {
	return methods(MethodRouter{http.MethodPost: h})
}
