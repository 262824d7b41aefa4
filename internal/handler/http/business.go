package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/snapreviews/snapreviews/internal/domain"
	"github.com/snapreviews/snapreviews/internal/service"
	"github.com/snapreviews/snapreviews/internal/view"
	"github.com/snapreviews/snapreviews/pkg/httputil"
)

// BusinessHandler serves the business pages and endpoints.
type BusinessHandler struct {
	service  *service.BusinessService
	renderer *view.Renderer
	logger   *slog.Logger
}

// NewBusinessHandler creates a new business HTTP handler.
func NewBusinessHandler(svc *service.BusinessService, renderer *view.Renderer, logger *slog.Logger) *BusinessHandler {
	return &BusinessHandler{
		service:  svc,
		renderer: renderer,
		logger:   logger,
	}
}

// Home handles GET /.
func (h *BusinessHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageHome, view.Page{
		Title:    "SnapReviews",
		UserRole: roleFrom(r).String(),
	})
}

// List handles GET /business.
func (h *BusinessHandler) List(w http.ResponseWriter, r *http.Request) {
	role := roleFrom(r)

	businesses, err := h.service.ListBusinesses(r.Context(), role)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if httputil.WantsHTML(r) {
		h.render(w, r, http.StatusOK, view.PageIndex, view.Page{
			Title:      "Businesses",
			UserRole:   role.String(),
			Businesses: businesses,
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: businesses})
}

// New handles GET /business/new. Non-owners are sent back to the list with
// the owner role suggested.
func (h *BusinessHandler) New(w http.ResponseWriter, r *http.Request) {
	role := roleFrom(r)
	if !role.Can(domain.ActionCreateBusiness) {
		http.Redirect(w, r, "/business?role="+string(domain.RoleOwner), http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, view.PageNew, view.Page{
		Title:    "Add a business",
		UserRole: role.String(),
	})
}

// Create handles POST /business.
func (h *BusinessHandler) Create(w http.ResponseWriter, r *http.Request) {
	role := roleFrom(r)
	if err := service.Authorize(role, domain.ActionCreateBusiness); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	req, err := decodeBusiness(w, r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	b, err := h.service.CreateBusiness(r.Context(), role, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Location", "/business/"+b.ID)
	respond(w, r, http.StatusCreated, "/business/"+b.ID, b)
}

// Show handles GET /business/{id}.
func (h *BusinessHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	role := roleFrom(r)

	b, err := h.service.GetBusiness(r.Context(), role, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if httputil.WantsHTML(r) {
		h.render(w, r, http.StatusOK, view.PageShow, view.Page{
			Title:    b.Title,
			UserRole: role.String(),
			Business: b,
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: b})
}

// Edit handles GET /business/{id}/update.
func (h *BusinessHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	role := roleFrom(r)
	if !role.Can(domain.ActionUpdateBusiness) {
		http.Redirect(w, r, "/business/"+id.String()+"?role="+string(domain.RoleOwner), http.StatusFound)
		return
	}

	b, err := h.service.GetBusiness(r.Context(), role, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.render(w, r, http.StatusOK, view.PageUpdate, view.Page{
		Title:    "Edit " + b.Title,
		UserRole: role.String(),
		Business: b,
	})
}

// Update handles PUT /business/{id}.
func (h *BusinessHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	role := roleFrom(r)
	if err := service.Authorize(role, domain.ActionUpdateBusiness); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	req, err := decodeBusiness(w, r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	b, err := h.service.UpdateBusiness(r.Context(), role, id.String(), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	respond(w, r, http.StatusOK, "/business/"+b.ID, b)
}

// Delete handles DELETE /business/{id}.
func (h *BusinessHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteBusiness(r.Context(), roleFrom(r), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	respond(w, r, http.StatusNoContent, "/business", nil)
}

func (h *BusinessHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data view.Page) {
	if err := h.renderer.Render(w, status, page, data); err != nil {
		httputil.WriteError(w, r, err, h.logger)
	}
}
