package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/sabawaheed27/motofix-europe/internal/app"
	"github.com/sabawaheed27/motofix-europe/internal/domain"
	"github.com/sabawaheed27/motofix-europe/internal/mapview"
)

// Handlers holds the services behind the pages and the JSON API.
type Handlers struct {
	Search    *app.SearchService
	Dashboard *app.DashboardService
	Admin     *app.AdminService
	Session   *app.SessionService

	// Maps is nil when the map capability is unavailable.
	Maps       *mapview.Capability
	SessionTTL time.Duration

	// TokenContext, when set, binds the session token to outbound backend
	// calls of the request.
	TokenContext func(context.Context, string) context.Context
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(staticFS())))

	s.mux.Group(func(r chi.Router) {
		r.Use(SameOrigin, Private)
		r.Use(Session(h.Session, h.TokenContext))

		r.Get("/v1/shops", h.listShops)
		r.Get("/v1/countries", h.listCountries)
		r.Get("/v1/cities", h.listCities)

		r.Get("/", h.home)
		r.Get("/login", h.loginPage)
		r.Post("/login", h.login)
		r.Post("/logout", h.logout)

		r.Get("/dashboard", h.dashboard)
		r.Get("/dashboard/shops/new", h.shopForm)
		r.Post("/dashboard/shops/new", h.saveShop)
		r.Get("/dashboard/shops/{id}/edit", h.shopForm)
		r.Post("/dashboard/shops/{id}/edit", h.saveShop)

		r.Get("/admin", h.admin)
		r.Get("/admin/shops/{id}/delete", h.confirmDelete)
		r.Post("/admin/shops/{id}/delete", h.deleteShop)
		r.Post("/admin/users/{id}/toggle-admin", h.toggleAdmin)
	})
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type shopsResponse struct {
	Seq    uint64          `json:"seq"`
	Header string          `json:"header"`
	Shops  []domain.Shop   `json:"shops"`
	Cities []string        `json:"cities,omitempty"` // options for the chosen country, sent while no city is chosen
	Map    mapview.PlanDoc `json:"map"`
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "response encoding failed")
		return
	}
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

// listShops answers a search. The caller's seq is echoed so the page can drop
// responses that arrive after a newer search was issued.
func (h *Handlers) listShops(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var seq uint64
	if s := q.Get("seq"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid seq", "seq must be a non-negative integer")
			return
		}
		seq = n
	}

	country, city := q.Get("country"), q.Get("city")
	shops, err := h.Search.Search(r.Context(), app.SearchQuery{Country: country, City: city})
	if err != nil {
		log.Error().Err(err).Msg("search shops")
		writeProblem(w, http.StatusBadGateway, "Backend Error", "could not load shops")
		return
	}
	resp := shopsResponse{
		Seq:    seq,
		Header: app.FoundHeader(len(shops)),
		Shops:  shops,
		Map:    mapview.Render(shops, q.Get("selected")),
	}
	if city == "" {
		resp.Cities = app.CitiesFor(country, shops)
	}
	writeJSON(w, r, resp)
}

func (h *Handlers) listCountries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string][]string{"countries": h.Search.Countries(r.Context())})
}

func (h *Handlers) listCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string][]string{"cities": h.Search.Cities(r.Context(), r.URL.Query().Get("country"))})
}
