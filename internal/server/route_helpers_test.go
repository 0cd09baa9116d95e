package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRouteByMethod_MatchingMethod(t *testing.T) {
	called := false
	routes := MethodRouter{
		"GET": func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		},
	}

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	RouteByMethod(w, req, routes)

	if !called {
		t.Error("expected GET handler to be called")
	}
}

func TestRouteByMethod_NoMatchingMethod(t *testing.T) {
	routes := MethodRouter{
		"GET": func(w http.ResponseWriter, r *http.Request) {
			t.Error("GET handler should not be called")
		},
	}

	req := httptest.NewRequest("POST", "/test", nil)
	w := httptest.NewRecorder()

	RouteByMethod(w, req, routes)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestRouteByMethod_HeadFallsBackToGET(t *testing.T) {
	called := false
	routes := MethodRouter{
		"GET": func(w http.ResponseWriter, r *http.Request) { called = true },
	}

	RouteByMethod(httptest.NewRecorder(), httptest.NewRequest("HEAD", "/test", nil), routes)

	if !called {
		t.Error("expected HEAD to reach the GET handler")
	}
}

func TestPOST_RejectsGET(t *testing.T) {
	h := POST(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/test", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON error body, got %s", ct)
	}
}

func TestGET_AllowsGET(t *testing.T) {
	h := GET(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/test", nil))

	if w.Code != http.StatusTeapot {
		t.Errorf("expected handler status, got %d", w.Code)
	}
}
