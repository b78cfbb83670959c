package handler

import (
	"encoding/json"
	"net/http"

	"tabletreats/internal/reservations/service"
	apperrors "tabletreats/pkg/errors"
	httputil "tabletreats/pkg/http"
	"tabletreats/pkg/logger"
	"tabletreats/pkg/middleware"
	"tabletreats/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service   service.ReservationService
	jwtSecret []byte
	log       *logger.Logger
}

func NewReservationHandler(service service.ReservationService, jwtSecret []byte, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service:   service,
		jwtSecret: jwtSecret,
		log:       log,
	}
}

func (h *ReservationHandler) CheckAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var check model.AvailabilityCheck
	if err := json.NewDecoder(r.Body).Decode(&check); err != nil {
		h.writeInvalidBody(w, "CheckAvailability")
		return
	}
	if check.NumberOfGuests == 0 {
		check.NumberOfGuests = 1
	}

	result, err := h.service.CheckAvailability(r.Context(), &check)
	if err != nil {
		h.writeError(w, "CheckAvailability", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckAvailability", "error", err)
	}
}

func (h *ReservationHandler) DailyAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date := r.URL.Query().Get("date")
	if date == "" {
		h.writeError(w, "DailyAvailability", apperrors.InvalidInput("date query parameter is required"))
		return
	}

	rows, err := h.service.DailyAvailability(r.Context(), ps.ByName("id"), date)
	if err != nil {
		h.writeError(w, "DailyAvailability", err)
		return
	}

	if err := httputil.WriteSuccess(w, rows); err != nil {
		h.log.Error("failed to write success response", "handler", "DailyAvailability", "error", err)
	}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "Create", apperrors.Unauthorized("Authentication required"))
		return
	}

	var create model.ReservationCreate
	if err := json.NewDecoder(r.Body).Decode(&create); err != nil {
		h.writeInvalidBody(w, "Create")
		return
	}

	reservation, err := h.service.Create(r.Context(), principal.Email, &create)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, reservation); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "GetByID", apperrors.Unauthorized("Authentication required"))
		return
	}

	reservation, err := h.service.GetByID(r.Context(), ps.ByName("id"), principal)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "ListMine", apperrors.Unauthorized("Authentication required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	reservations, total, err := h.service.ListByCustomer(r.Context(), principal.Email, limit, offset)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WritePaginated(w, reservations, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "error", err)
	}
}

func (h *ReservationHandler) ListForRestaurant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "ListForRestaurant", apperrors.Unauthorized("Authentication required"))
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		h.writeError(w, "ListForRestaurant", apperrors.InvalidInput("date query parameter is required"))
		return
	}

	reservations, err := h.service.ListForRestaurant(r.Context(), principal.Email, ps.ByName("id"), date)
	if err != nil {
		h.writeError(w, "ListForRestaurant", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservations); err != nil {
		h.log.Error("failed to write success response", "handler", "ListForRestaurant", "error", err)
	}
}

func (h *ReservationHandler) TotalGuests(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "TotalGuests", apperrors.Unauthorized("Authentication required"))
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		h.writeError(w, "TotalGuests", apperrors.InvalidInput("date query parameter is required"))
		return
	}

	total, err := h.service.TotalGuests(r.Context(), principal.Email, ps.ByName("id"), date)
	if err != nil {
		h.writeError(w, "TotalGuests", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]any{
		"date":         date,
		"total_guests": total,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "TotalGuests", "error", err)
	}
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "Cancel", apperrors.Unauthorized("Authentication required"))
		return
	}

	if err := h.service.Cancel(r.Context(), ps.ByName("id"), principal.Email); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]string{"status": model.StatusCancelled}); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "error", err)
	}
}

func (h *ReservationHandler) CheckIn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "CheckIn", apperrors.Unauthorized("Authentication required"))
		return
	}

	reservation, err := h.service.CheckIn(r.Context(), ps.ByName("id"), principal.Email)
	if err != nil {
		h.writeError(w, "CheckIn", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckIn", "error", err)
	}
}

func (h *ReservationHandler) UndoCheckIn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "UndoCheckIn", apperrors.Unauthorized("Authentication required"))
		return
	}

	reservation, err := h.service.UndoCheckIn(r.Context(), ps.ByName("id"), principal.Email)
	if err != nil {
		h.writeError(w, "UndoCheckIn", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "UndoCheckIn", "error", err)
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *ReservationHandler) writeInvalidBody(w http.ResponseWriter, handlerName string) {
	if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: "Invalid request body",
	}); writeErr != nil {
		h.log.Error("failed to write JSON response", "handler", handlerName, "error", writeErr)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	auth := func(next httprouter.Handle) httprouter.Handle {
		return middleware.Authenticate(h.jwtSecret, next)
	}
	customer := func(next httprouter.Handle) httprouter.Handle {
		return middleware.RequireRole(h.jwtSecret, model.RoleCustomer, next)
	}
	owner := func(next httprouter.Handle) httprouter.Handle {
		return middleware.RequireRole(h.jwtSecret, model.RoleRestaurant, next)
	}

	router.POST("/api/v1/availability/check", h.CheckAvailability)
	router.GET("/api/v1/restaurants/id/:id/availability", h.DailyAvailability)

	router.POST("/api/v1/reservations", customer(h.Create))
	router.GET("/api/v1/reservations", customer(h.ListMine))
	router.GET("/api/v1/reservations/id/:id", auth(h.GetByID))
	router.POST("/api/v1/reservations/id/:id/cancel", customer(h.Cancel))
	router.POST("/api/v1/reservations/id/:id/check-in", owner(h.CheckIn))
	router.POST("/api/v1/reservations/id/:id/undo-check-in", owner(h.UndoCheckIn))

	router.GET("/api/v1/restaurants/id/:id/reservations", owner(h.ListForRestaurant))
	router.GET("/api/v1/restaurants/id/:id/guest-count", owner(h.TotalGuests))
}
