package order

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/appetiteclub/bootheat/pkg/enums/orderstatus"
	"github.com/go-chi/chi/v5"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	logger  apt.Logger
	config  *apt.Config
	tlm     *telemetry.HTTP
	service *Service
}

type HandlerDeps struct {
	Repos         Repos
	Publisher     events.Publisher
	MenuPublisher events.Publisher
	Location      *time.Location
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	service := NewService(ServiceDeps{
		Repos:         hd.Repos,
		Publisher:     hd.Publisher,
		MenuPublisher: hd.MenuPublisher,
		Location:      hd.Location,
	}, logger)

	return &Handler{
		config:  config,
		logger:  logger,
		tlm:     telemetry.NewHTTP(),
		service: service,
	}
}

// Service exposes the workflows behind the handler, mostly for seeding.
func (h *Handler) Service() *Service {
	return h.service
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/{orderId}", h.GetOrder)
	})

	r.Get("/tables/{tableId}/visits/latest/orders", h.LatestVisitOrderIDs)

	r.Route("/booths/{boothId}", func(r chi.Router) {
		r.Get("/tables", h.ListTables)
		r.Get("/tables/{tableId}/orders", h.ListTableOrders)
		r.Get("/tables/by-number/{tableNo}/context", h.GetTableContext)
		r.Get("/menus", h.ListMenu)
		r.Get("/menus/{menuItemId}", h.GetMenuItem)
		r.Get("/account", h.GetBoothAccount)
	})

	r.Route("/manager", func(r chi.Router) {
		r.Post("/orders/{orderId}/status/{status}", h.ChangeOrderStatus)
		r.Post("/tables/{tableId}/close-visit", h.CloseVisit)
		r.Post("/booths/{boothId}/tables", h.CreateTable)
		r.Put("/booths/{boothId}/account", h.SetBoothAccount)

		r.Get("/booths/{boothId}/menus", h.ListManagerMenu)
		r.Post("/booths/{boothId}/menus", h.CreateMenuItem)
		r.Patch("/booths/{boothId}/menus/{menuItemId}", h.PatchMenuItem)
		r.Delete("/booths/{boothId}/menus/{menuItemId}", h.DeleteMenuItem)
		r.Post("/menus/{menuItemId}/toggle-available", h.ToggleAvailable)

		h.registerStatsRoutes(r)
	})
}

// Order Handlers

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrder")
	defer finish()

	log := h.log(r)

	var req OrderCreateRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	o, err := h.service.PlaceOrder(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not create order")
		return
	}

	log.Info("order created", "order_id", o.ID, "table_id", o.TableID, "visit_id", o.VisitIDValue())
	apt.Respond(w, http.StatusCreated, OrderCreated{
		OrderID:   o.ID,
		OrderCode: o.OrderCode,
		Status:    o.Status,
		Amount:    o.TotalAmount,
		CreatedAt: o.CreatedAt,
	}, nil)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log, "orderId")
	if !ok {
		return
	}

	o, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not retrieve order")
		return
	}

	apt.Respond(w, http.StatusOK, NewOrderDetail(o), nil)
}

func (h *Handler) ChangeOrderStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ChangeOrderStatus")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log, "orderId")
	if !ok {
		return
	}
	status := chi.URLParam(r, "status")

	var req StatusChangeRequest
	present, ok := h.decodeOptionalPayload(w, r, log, &req)
	if !ok {
		return
	}
	if present {
		if req.OrderID != nil && *req.OrderID != id {
			log.Debug("order id mismatch", "path", id, "body", *req.OrderID)
			apt.RespondError(w, http.StatusBadRequest, "order_id does not match path")
			return
		}
		if req.Status != "" && orderstatus.Normalize(req.Status) != orderstatus.Normalize(status) {
			log.Debug("status mismatch", "path", status, "body", req.Status)
			apt.RespondError(w, http.StatusBadRequest, "status does not match path")
			return
		}
	}

	o, err := h.service.SetStatus(r.Context(), id, status)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not update order status")
		return
	}

	log.Info("order status changed", "order_id", o.ID, "status", o.Status)
	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"orderId": o.ID,
		"status":  o.Status,
	}, nil)
}

// Table and visit handlers

func (h *Handler) LatestVisitOrderIDs(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.LatestVisitOrderIDs")
	defer finish()

	log := h.log(r)

	tableID, ok := h.parseIDParam(w, r, log, "tableId")
	if !ok {
		return
	}

	ids, err := h.service.LatestVisitOrderIDs(r.Context(), tableID)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not retrieve visit orders")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"orderIds": ids,
	}, nil)
}

func (h *Handler) CloseVisit(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CloseVisit")
	defer finish()

	log := h.log(r)

	tableID, ok := h.parseIDParam(w, r, log, "tableId")
	if !ok {
		return
	}

	var req CloseVisitRequest
	present, ok := h.decodeOptionalPayload(w, r, log, &req)
	if !ok {
		return
	}
	if present && req.TableID != nil && *req.TableID != tableID {
		log.Debug("table id mismatch", "path", tableID, "body", *req.TableID)
		apt.RespondError(w, http.StatusBadRequest, "tableId does not match path")
		return
	}

	closed, err := h.service.CloseVisit(r.Context(), tableID)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not close visit")
		return
	}

	log.Info("table cleared", "table_id", tableID, "closed", closed)
	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"tableId": tableID,
		"closed":  closed,
	}, nil)
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListTables")
	defer finish()

	log := h.log(r)

	boothID, ok := h.parseIDParam(w, r, log, "boothId")
	if !ok {
		return
	}

	tables, err := h.service.ListTables(r.Context(), boothID)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not retrieve tables")
		return
	}

	apt.Respond(w, http.StatusOK, tables, nil)
}

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateTable")
	defer finish()

	log := h.log(r)

	boothID, ok := h.parseIDParam(w, r, log, "boothId")
	if !ok {
		return
	}

	var req TableCreateRequest
	if _, ok := h.decodeOptionalPayload(w, r, log, &req); !ok {
		return
	}

	table, err := h.service.CreateTable(r.Context(), boothID, req)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not create table")
		return
	}

	apt.Respond(w, http.StatusCreated, table, nil)
}

func (h *Handler) ListTableOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListTableOrders")
	defer finish()

	log := h.log(r)

	boothID, ok := h.parseIDParam(w, r, log, "boothId")
	if !ok {
		return
	}
	tableID, ok := h.parseIDParam(w, r, log, "tableId")
	if !ok {
		return
	}

	rows, err := h.service.TableOrders(r.Context(), boothID, tableID)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not retrieve table orders")
		return
	}

	apt.Respond(w, http.StatusOK, rows, nil)
}

func (h *Handler) GetTableContext(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetTableContext")
	defer finish()

	log := h.log(r)

	boothID, ok := h.parseIDParam(w, r, log, "boothId")
	if !ok {
		return
	}
	tableNo, ok := h.parseIDParam(w, r, log, "tableNo")
	if !ok {
		return
	}

	tc, err := h.service.TableContext(r.Context(), boothID, int(tableNo))
	if err != nil {
		h.respondServiceError(w, log, err, "Could not retrieve table context")
		return
	}

	apt.Respond(w, http.StatusOK, tc, nil)
}

// Helpers

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger, name string) (int64, bool) {
	idStr := chi.URLParam(r, name)
	if idStr == "" {
		log.Debug("missing id parameter", "param", name)
		apt.RespondError(w, http.StatusBadRequest, "Missing "+name+" parameter")
		return 0, false
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		log.Debug("invalid id parameter", "param", name, "value", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid "+name+" parameter")
		return 0, false
	}

	return id, true
}

func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request, log apt.Logger, target interface{}) bool {
	present, ok := h.decodeOptionalPayload(w, r, log, target)
	if ok && !present {
		log.Debug("empty request body")
		apt.RespondError(w, http.StatusBadRequest, "Request body is required")
		return false
	}
	return ok
}

// decodeOptionalPayload accepts an empty body and reports whether one was
// present.
func (h *Handler) decodeOptionalPayload(w http.ResponseWriter, r *http.Request, log apt.Logger, target interface{}) (bool, bool) {
	if r.Body == nil {
		return false, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return false, false
	}

	if strings.TrimSpace(string(body)) == "" {
		return false, true
	}

	if err := json.Unmarshal(body, target); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false, false
	}

	return true, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, log apt.Logger, err error, fallback string) {
	var validationErrs ValidationErrors
	var notFound *NotFoundError
	var invalidStatus *InvalidStatusError
	var conflict *ConflictError

	switch {
	case errors.As(err, &validationErrs):
		h.respondValidationErrors(w, validationErrs)
	case errors.As(err, &notFound):
		log.Debug("resource not found", "error", err)
		apt.RespondError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &invalidStatus):
		log.Debug("invalid status", "status", invalidStatus.Status)
		apt.RespondError(w, http.StatusBadRequest, invalidStatus.Error())
	case errors.As(err, &conflict):
		log.Debug("request conflicts with stored state", "error", err)
		apt.RespondError(w, http.StatusBadRequest, conflict.Error())
	default:
		log.Error(strings.ToLower(fallback), "error", err)
		apt.RespondError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *Handler) respondValidationErrors(w http.ResponseWriter, errors []ValidationError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  "Validation failed",
		"errors": errors,
	})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
