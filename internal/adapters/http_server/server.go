package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

const handlerTimeout = 15 * time.Second

// Server is the router shared by the pages, the JSON API and ops endpoints.
type Server struct{ mux *chi.Mux }

func New() *Server {
	m := chi.NewRouter()

	// middlewares must be registered before any route
	m.Use(chimw.RealIP, chimw.RequestID, chimw.Recoverer)
	m.Use(Timeout(handlerTimeout))
	m.Use(Metrics, Logger(log.Logger))

	m.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if isAPI(r) {
			writeProblem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
			return
		}
		http.NotFound(w, r)
	})
	m.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		if isAPI(r) {
			writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" is not supported here")
			return
		}
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return &Server{mux: m}
}

func isAPI(r *http.Request) bool { return strings.HasPrefix(r.URL.Path, "/v1/") }

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches an extra handler such as /metrics.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
