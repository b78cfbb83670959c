package handler

import (
	"encoding/json"
	"net/http"

	"tabletreats/internal/restaurants/repository"
	"tabletreats/internal/restaurants/service"
	apperrors "tabletreats/pkg/errors"
	httputil "tabletreats/pkg/http"
	"tabletreats/pkg/logger"
	"tabletreats/pkg/middleware"
	"tabletreats/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type RestaurantHandler struct {
	service   service.RestaurantService
	jwtSecret []byte
	log       *logger.Logger
}

func NewRestaurantHandler(service service.RestaurantService, jwtSecret []byte, log *logger.Logger) *RestaurantHandler {
	return &RestaurantHandler{
		service:   service,
		jwtSecret: jwtSecret,
		log:       log,
	}
}

func (h *RestaurantHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	filter := repository.ListFilter{
		City:    r.URL.Query().Get("city"),
		Cuisine: r.URL.Query().Get("cuisine"),
	}

	restaurants, total, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, restaurants, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "error", err)
	}
}

func (h *RestaurantHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	restaurant, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, restaurant); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

// Mine returns the restaurant managed by the authenticated owner.
func (h *RestaurantHandler) Mine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "Mine", apperrors.Unauthorized("Authentication required"))
		return
	}

	restaurant, err := h.service.GetByOwner(r.Context(), principal.Email)
	if err != nil {
		h.writeError(w, "Mine", err)
		return
	}

	if err := httputil.WriteSuccess(w, restaurant); err != nil {
		h.log.Error("failed to write success response", "handler", "Mine", "error", err)
	}
}

func (h *RestaurantHandler) Hours(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date := r.URL.Query().Get("date")
	if date == "" {
		h.writeError(w, "Hours", apperrors.InvalidInput("date query parameter is required"))
		return
	}

	info, err := h.service.HoursForDate(r.Context(), ps.ByName("id"), date)
	if err != nil {
		h.writeError(w, "Hours", err)
		return
	}

	if err := httputil.WriteSuccess(w, info); err != nil {
		h.log.Error("failed to write success response", "handler", "Hours", "error", err)
	}
}

func (h *RestaurantHandler) UpdateHours(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "UpdateHours", apperrors.Unauthorized("Authentication required"))
		return
	}

	var hours map[string]model.DayHours
	if err := json.NewDecoder(r.Body).Decode(&hours); err != nil {
		h.writeInvalidBody(w, "UpdateHours")
		return
	}

	if err := h.service.UpdateHours(r.Context(), ps.ByName("id"), principal.Email, hours); err != nil {
		h.writeError(w, "UpdateHours", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]string{"status": "updated"}); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateHours", "error", err)
	}
}

func (h *RestaurantHandler) UpdateSeating(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "UpdateSeating", apperrors.Unauthorized("Authentication required"))
		return
	}

	var seating model.SeatingConfig
	if err := json.NewDecoder(r.Body).Decode(&seating); err != nil {
		h.writeInvalidBody(w, "UpdateSeating")
		return
	}

	if err := h.service.UpdateSeatingConfig(r.Context(), ps.ByName("id"), principal.Email, &seating); err != nil {
		h.writeError(w, "UpdateSeating", err)
		return
	}

	if err := httputil.WriteSuccess(w, seating); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateSeating", "error", err)
	}
}

// Deals serves the public deal listing. Without query parameters it
// returns the deals matching right now; with date and time_slot it
// answers "what would apply to this reservation".
func (h *RestaurantHandler) Deals(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()
	date := query.Get("date")
	slot := query.Get("time_slot")

	var (
		deals []model.Deal
		err   error
	)
	if date != "" || slot != "" {
		if date == "" || slot == "" {
			h.writeError(w, "Deals", apperrors.InvalidInput("date and time_slot must be provided together"))
			return
		}
		deals, err = h.service.ApplicableDeals(r.Context(), ps.ByName("id"), date, slot)
	} else {
		deals, err = h.service.PublicPromos(r.Context(), ps.ByName("id"))
	}
	if err != nil {
		h.writeError(w, "Deals", err)
		return
	}

	if err := httputil.WriteSuccess(w, deals); err != nil {
		h.log.Error("failed to write success response", "handler", "Deals", "error", err)
	}
}

func (h *RestaurantHandler) CreatePromo(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "CreatePromo", apperrors.Unauthorized("Authentication required"))
		return
	}

	var deal model.Deal
	if err := json.NewDecoder(r.Body).Decode(&deal); err != nil {
		h.writeInvalidBody(w, "CreatePromo")
		return
	}

	if err := h.service.CreatePromo(r.Context(), ps.ByName("id"), principal.Email, &deal); err != nil {
		h.writeError(w, "CreatePromo", err)
		return
	}

	if err := httputil.WriteCreated(w, deal); err != nil {
		h.log.Error("failed to write created response", "handler", "CreatePromo", "error", err)
	}
}

func (h *RestaurantHandler) ListPromos(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "ListPromos", apperrors.Unauthorized("Authentication required"))
		return
	}

	promos, err := h.service.ListPromos(r.Context(), ps.ByName("id"), principal.Email)
	if err != nil {
		h.writeError(w, "ListPromos", err)
		return
	}

	if err := httputil.WriteSuccess(w, promos); err != nil {
		h.log.Error("failed to write success response", "handler", "ListPromos", "error", err)
	}
}

func (h *RestaurantHandler) GetPromo(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "GetPromo", apperrors.Unauthorized("Authentication required"))
		return
	}

	promo, err := h.service.GetPromo(r.Context(), ps.ByName("id"), principal.Email, ps.ByName("promo_id"))
	if err != nil {
		h.writeError(w, "GetPromo", err)
		return
	}

	if err := httputil.WriteSuccess(w, promo); err != nil {
		h.log.Error("failed to write success response", "handler", "GetPromo", "error", err)
	}
}

func (h *RestaurantHandler) UpdatePromo(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "UpdatePromo", apperrors.Unauthorized("Authentication required"))
		return
	}

	var update model.DealUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeInvalidBody(w, "UpdatePromo")
		return
	}

	promo, err := h.service.UpdatePromo(r.Context(), ps.ByName("id"), principal.Email, ps.ByName("promo_id"), &update)
	if err != nil {
		h.writeError(w, "UpdatePromo", err)
		return
	}

	if err := httputil.WriteSuccess(w, promo); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdatePromo", "error", err)
	}
}

func (h *RestaurantHandler) DeletePromo(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "DeletePromo", apperrors.Unauthorized("Authentication required"))
		return
	}

	if err := h.service.DeletePromo(r.Context(), ps.ByName("id"), principal.Email, ps.ByName("promo_id")); err != nil {
		h.writeError(w, "DeletePromo", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *RestaurantHandler) TogglePromo(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "TogglePromo", apperrors.Unauthorized("Authentication required"))
		return
	}

	promo, err := h.service.TogglePromo(r.Context(), ps.ByName("id"), principal.Email, ps.ByName("promo_id"))
	if err != nil {
		h.writeError(w, "TogglePromo", err)
		return
	}

	if err := httputil.WriteSuccess(w, promo); err != nil {
		h.log.Error("failed to write success response", "handler", "TogglePromo", "error", err)
	}
}

func (h *RestaurantHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *RestaurantHandler) writeInvalidBody(w http.ResponseWriter, handlerName string) {
	if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: "Invalid request body",
	}); writeErr != nil {
		h.log.Error("failed to write JSON response", "handler", handlerName, "error", writeErr)
	}
}

func (h *RestaurantHandler) RegisterRoutes(router *httprouter.Router) {
	owner := func(next httprouter.Handle) httprouter.Handle {
		return middleware.RequireRole(h.jwtSecret, model.RoleRestaurant, next)
	}

	router.GET("/api/v1/restaurants", h.List)
	router.GET("/api/v1/restaurants/me", owner(h.Mine))
	router.GET("/api/v1/restaurants/id/:id", h.GetByID)
	router.GET("/api/v1/restaurants/id/:id/hours", h.Hours)
	router.GET("/api/v1/restaurants/id/:id/deals", h.Deals)

	router.PUT("/api/v1/restaurants/id/:id/hours", owner(h.UpdateHours))
	router.PUT("/api/v1/restaurants/id/:id/seating", owner(h.UpdateSeating))

	router.POST("/api/v1/restaurants/id/:id/promos", owner(h.CreatePromo))
	router.GET("/api/v1/restaurants/id/:id/promos", owner(h.ListPromos))
	router.GET("/api/v1/restaurants/id/:id/promos/:promo_id", owner(h.GetPromo))
	router.PATCH("/api/v1/restaurants/id/:id/promos/:promo_id", owner(h.UpdatePromo))
	router.DELETE("/api/v1/restaurants/id/:id/promos/:promo_id", owner(h.DeletePromo))
	router.POST("/api/v1/restaurants/id/:id/promos/:promo_id/toggle", owner(h.TogglePromo))
}
