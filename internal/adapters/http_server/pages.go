package httpserver

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/sabawaheed27/motofix-europe/internal/app"
	"github.com/sabawaheed27/motofix-europe/internal/domain"
	"github.com/sabawaheed27/motofix-europe/internal/mapview"
)

type listingData struct {
	View      app.ListingView
	Skeletons []struct{}
}

type homeBody struct {
	Form      app.SearchForm
	Listing   listingData
	Plan      mapview.PlanDoc
	MapScript string
}

type loginBody struct {
	Email string
	Error string
}

type dashboardBody struct {
	Shops []domain.Shop
}

type shopFormBody struct {
	Editing       bool
	Action        string
	Form          app.ShopForm
	Errors        app.FieldErrors
	Message       string
	BusinessTypes []domain.BusinessType
}

type adminBody struct {
	Tab  app.AdminTab
	Data app.AdminData
}

type confirmBody struct {
	Shop    domain.Shop
	Message string
}

func (h *Handlers) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	form := h.Search.NewSearchForm(ctx, q.Get("country"), q.Get("city"))
	selected := q.Get("selected")

	shops, err := h.Search.Search(ctx, form.Query())
	if err != nil {
		log.Error().Err(err).Msg("search shops")
		shops = nil
	}
	view := app.BuildListing(shops, false, selected)
	for i := range view.Cards {
		view.Cards[i].SelectHref = selectHref(form, view.Cards[i].UUID)
	}

	body := homeBody{
		Form:    form,
		Listing: listingData{View: view, Skeletons: make([]struct{}, view.Skeletons)},
		Plan:    mapview.Render(shops, selected),
	}
	if h.Maps != nil {
		body.MapScript = h.Maps.ScriptURL
	}
	h.render(w, r, http.StatusOK, "home", "", body)
}

// selectHref keeps the active filters when a card is selected.
func selectHref(f app.SearchForm, uuid string) string {
	v := url.Values{"selected": {uuid}}
	if f.Country != "" {
		v.Set("country", f.Country)
	}
	if f.City != "" {
		v.Set("city", f.City)
	}
	return "?" + v.Encode()
}

func (h *Handlers) loginPage(w http.ResponseWriter, r *http.Request) {
	if IdentityFrom(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login", "Sign in", loginBody{})
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	email, password := r.PostFormValue("email"), r.PostFormValue("password")
	sess, err := h.Session.SignIn(r.Context(), email, password)
	if err != nil {
		status, msg := http.StatusBadGateway, "Sign-in failed, please try again"
		switch {
		case errors.Is(err, domain.ErrInvalid):
			status, msg = http.StatusBadRequest, "Email and password are required"
		case errors.Is(err, domain.ErrUnauthenticated):
			status, msg = http.StatusUnauthorized, "Invalid email or password"
		default:
			log.Error().Err(err).Msg("sign in")
		}
		h.render(w, r, status, "login", "Sign in", loginBody{Email: email, Error: msg})
		return
	}
	setSessionCookie(w, r, sess, h.SessionTTL)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.SignOut(r.Context(), tokenFrom(r.Context())); err != nil {
		log.Warn().Err(err).Msg("sign out")
	}
	clearSessionCookie(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	who := IdentityFrom(r.Context())
	shops, err := h.Dashboard.Load(r.Context(), who)
	if errors.Is(err, domain.ErrUnauthenticated) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "dashboard", "Dashboard", dashboardBody{Shops: shops})
}

func (h *Handlers) shopForm(w http.ResponseWriter, r *http.Request) {
	who := IdentityFrom(r.Context())
	if who == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	body := shopFormBody{Action: r.URL.Path, BusinessTypes: domain.BusinessTypes}
	if id := chi.URLParam(r, "id"); id != "" {
		shop, ok := h.ownedShop(w, r, who, id)
		if !ok {
			return
		}
		body.Editing = true
		body.Form = app.FormFromShop(shop)
	}
	h.render(w, r, http.StatusOK, "shopform", formTitle(body.Editing), body)
}

// saveShop does not redirect anonymous posts: the editor reports the missing
// session inline and nothing is written.
func (h *Handlers) saveShop(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	who := IdentityFrom(ctx)
	form := formFromRequest(r)

	var editing *domain.Shop
	if id := chi.URLParam(r, "id"); id != "" {
		if who == nil {
			editing = &domain.Shop{ID: id}
		} else {
			shop, ok := h.ownedShop(w, r, who, id)
			if !ok {
				return
			}
			editing = &shop
		}
	}

	ed := h.Dashboard.Editor(editing, nil)
	if _, err := ed.Submit(ctx, who, form); err != nil {
		_, msg := ed.State()
		body := shopFormBody{
			Editing:       ed.Editing(),
			Action:        r.URL.Path,
			Form:          form,
			Message:       msg,
			BusinessTypes: domain.BusinessTypes,
		}
		status := http.StatusBadGateway
		var fe app.FieldErrors
		switch {
		case errors.As(err, &fe):
			status, body.Errors = http.StatusUnprocessableEntity, fe
		case errors.Is(err, domain.ErrUnauthenticated):
			status = http.StatusUnauthorized
		case errors.Is(err, domain.ErrNotFound):
			status = http.StatusNotFound
		default:
			log.Error().Err(err).Msg("save shop")
		}
		h.render(w, r, status, "shopform", formTitle(body.Editing), body)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handlers) ownedShop(w http.ResponseWriter, r *http.Request, who *domain.Identity, id string) (domain.Shop, bool) {
	shop, err := h.Dashboard.Shop(r.Context(), who, id)
	switch {
	case err == nil:
		return shop, true
	case errors.Is(err, domain.ErrNotFound):
		h.errorPage(w, r, http.StatusNotFound, "Not found", "This shop does not exist.")
	case errors.Is(err, domain.ErrForbidden):
		h.errorPage(w, r, http.StatusForbidden, "Forbidden", "You are not allowed to change this shop.")
	default:
		log.Error().Err(err).Str("shop", id).Msg("load shop")
		h.errorPage(w, r, http.StatusBadGateway, "Backend error", "The shop could not be loaded.")
	}
	return domain.Shop{}, false
}

func formTitle(editing bool) string {
	if editing {
		return "Edit shop"
	}
	return "Add shop"
}

func formFromRequest(r *http.Request) app.ShopForm {
	return app.ShopForm{
		Name:         r.PostFormValue("name"),
		Country:      r.PostFormValue("country"),
		City:         r.PostFormValue("city"),
		Address:      r.PostFormValue("address"),
		Phone:        r.PostFormValue("phone"),
		Website:      r.PostFormValue("website"),
		BusinessType: r.PostFormValue("business_type"),
		Hours:        r.PostFormValue("hours"),
		Rating:       r.PostFormValue("rating"),
		ReviewsCount: r.PostFormValue("reviews_count"),
		Latitude:     r.PostFormValue("latitude"),
		Longitude:    r.PostFormValue("longitude"),
		PlaceID:      r.PostFormValue("place_id"),
	}
}

// requireAdmin redirects anonymous users to the login page and everyone who
// is not an admin to the dashboard.
func (h *Handlers) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	err := h.Admin.Authorize(r.Context(), IdentityFrom(r.Context()))
	switch {
	case err == nil:
		return true
	case errors.Is(err, domain.ErrUnauthenticated):
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	}
	return false
}

func (h *Handlers) admin(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	body := adminBody{
		Tab:  app.ParseTab(r.URL.Query().Get("tab")),
		Data: h.Admin.Load(r.Context()),
	}
	h.render(w, r, http.StatusOK, "admin", "Admin", body)
}

func (h *Handlers) confirmDelete(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	shop, ok := h.adminShop(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "confirm_delete", "Delete shop", confirmBody{Shop: shop})
}

func (h *Handlers) deleteShop(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	err := h.Admin.DeleteShop(r.Context(), id, r.PostFormValue("confirm") == "yes")
	switch {
	case err == nil:
		http.Redirect(w, r, "/admin?tab=shops", http.StatusSeeOther)
	case errors.Is(err, app.ErrConfirmationRequired):
		shop, ok := h.adminShop(w, r, id)
		if !ok {
			return
		}
		h.render(w, r, http.StatusBadRequest, "confirm_delete", "Delete shop",
			confirmBody{Shop: shop, Message: "Please confirm the deletion."})
	case errors.Is(err, domain.ErrNotFound):
		h.errorPage(w, r, http.StatusNotFound, "Not found", "This shop does not exist.")
	default:
		log.Error().Err(err).Str("shop", id).Msg("delete shop")
		h.errorPage(w, r, http.StatusBadGateway, "Backend error", "The shop could not be deleted.")
	}
}

func (h *Handlers) adminShop(w http.ResponseWriter, r *http.Request, id string) (domain.Shop, bool) {
	shop, err := h.Admin.Shop(r.Context(), id)
	switch {
	case err == nil:
		return shop, true
	case errors.Is(err, domain.ErrNotFound):
		h.errorPage(w, r, http.StatusNotFound, "Not found", "This shop does not exist.")
	default:
		log.Error().Err(err).Str("shop", id).Msg("load shop")
		h.errorPage(w, r, http.StatusBadGateway, "Backend error", "The shop could not be loaded.")
	}
	return domain.Shop{}, false
}

func (h *Handlers) toggleAdmin(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	_, err := h.Admin.ToggleAdmin(r.Context(), id)
	switch {
	case err == nil:
		http.Redirect(w, r, "/admin?tab=users", http.StatusSeeOther)
	case errors.Is(err, domain.ErrNotFound):
		h.errorPage(w, r, http.StatusNotFound, "Not found", "This user does not exist.")
	default:
		log.Error().Err(err).Str("user", id).Msg("toggle admin")
		h.errorPage(w, r, http.StatusBadGateway, "Backend error", "The admin flag could not be changed.")
	}
}
