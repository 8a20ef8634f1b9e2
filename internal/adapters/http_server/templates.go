package httpserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sabawaheed27/motofix-europe/internal/app"
	"github.com/sabawaheed27/motofix-europe/internal/domain"
	"github.com/sabawaheed27/motofix-europe/internal/mapview"
)

//go:embed templates/*.tmpl static/*
var assetsFS embed.FS

var pageNames = []string{"home", "login", "dashboard", "shopform", "admin", "confirm_delete", "error"}

var pages = mustParsePages()

var funcs = template.FuncMap{
	"rating": func(r *float64) string {
		if r == nil {
			return ""
		}
		return app.FormatRating(*r)
	},
	"tel": mapview.TelURL,
}

func mustParsePages() map[string]*template.Template {
	out := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.tmpl").Funcs(funcs).
			ParseFS(assetsFS, "templates/layout.tmpl", "templates/"+name+".tmpl")
		if err != nil {
			panic(fmt.Errorf("parse %s template: %w", name, err))
		}
		out[name] = t
	}
	return out
}

func staticFS() http.FileSystem {
	sub, err := fs.Sub(assetsFS, "static")
	if err != nil {
		panic(fmt.Errorf("static fs: %w", err))
	}
	return http.FS(sub)
}

// page is the data every template receives; Body is page specific.
type page struct {
	Title   string
	Who     *domain.Identity
	IsAdmin bool
	Body    any
}

// render executes into a buffer first so a template failure never leaves a
// half written page behind a success status.
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, name, title string, body any) {
	who := IdentityFrom(r.Context())
	p := page{Title: title, Who: who, Body: body, IsAdmin: h.Session.IsAdmin(r.Context(), who)}

	var buf bytes.Buffer
	if err := pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		log.Error().Err(err).Str("page", name).Msg("render page failed")
		http.Error(w, "render failure", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func (h *Handlers) errorPage(w http.ResponseWriter, r *http.Request, status int, title, msg string) {
	h.render(w, r, status, "error", title, msg)
}
