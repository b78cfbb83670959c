package handler

import (
	"encoding/json"
	"net/http"

	"tabletreats/internal/bills/service"
	apperrors "tabletreats/pkg/errors"
	httputil "tabletreats/pkg/http"
	"tabletreats/pkg/logger"
	"tabletreats/pkg/middleware"
	"tabletreats/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BillHandler struct {
	service   service.BillService
	jwtSecret []byte
	log       *logger.Logger
}

func NewBillHandler(service service.BillService, jwtSecret []byte, log *logger.Logger) *BillHandler {
	return &BillHandler{
		service:   service,
		jwtSecret: jwtSecret,
		log:       log,
	}
}

func (h *BillHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "Create", apperrors.Unauthorized("Authentication required"))
		return
	}

	var create model.BillCreate
	if err := json.NewDecoder(r.Body).Decode(&create); err != nil {
		h.writeInvalidBody(w, "Create")
		return
	}

	bill, err := h.service.Create(r.Context(), principal.Email, &create)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, bill); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *BillHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "Get", apperrors.Unauthorized("Authentication required"))
		return
	}

	bill, err := h.service.Get(r.Context(), ps.ByName("id"), principal)
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}

	if err := httputil.WriteSuccess(w, bill); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "error", err)
	}
}

func (h *BillHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "Update", apperrors.Unauthorized("Authentication required"))
		return
	}

	var update model.BillUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeInvalidBody(w, "Update")
		return
	}

	bill, err := h.service.Update(r.Context(), principal.Email, ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, bill); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *BillHandler) Pay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, "Pay", apperrors.Unauthorized("Authentication required"))
		return
	}

	receipt, err := h.service.MarkPaid(r.Context(), principal.Email, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Pay", err)
		return
	}

	if err := httputil.WriteSuccess(w, receipt); err != nil {
		h.log.Error("failed to write success response", "handler", "Pay", "error", err)
	}
}

func (h *BillHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *BillHandler) writeInvalidBody(w http.ResponseWriter, handlerName string) {
	if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: "Invalid request body",
	}); writeErr != nil {
		h.log.Error("failed to write JSON response", "handler", handlerName, "error", writeErr)
	}
}

func (h *BillHandler) RegisterRoutes(router *httprouter.Router) {
	auth := func(next httprouter.Handle) httprouter.Handle {
		return middleware.Authenticate(h.jwtSecret, next)
	}
	owner := func(next httprouter.Handle) httprouter.Handle {
		return middleware.RequireRole(h.jwtSecret, model.RoleRestaurant, next)
	}
	customer := func(next httprouter.Handle) httprouter.Handle {
		return middleware.RequireRole(h.jwtSecret, model.RoleCustomer, next)
	}

	router.POST("/api/v1/bills", owner(h.Create))
	router.GET("/api/v1/reservations/id/:id/bill", auth(h.Get))
	router.PATCH("/api/v1/reservations/id/:id/bill", owner(h.Update))
	router.POST("/api/v1/reservations/id/:id/bill/pay", customer(h.Pay))
}
