package operations

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
)

const (
	MaxBodyBytes = 1 << 20

	defaultApprovalTimeout = 30 * time.Second
	maxApprovalTimeout     = 2 * time.Minute
)

type Handler struct {
	logger    apt.Logger
	config    *apt.Config
	tlm       *telemetry.HTTP
	store     OrderStore
	dashboard *Dashboard
	status    *StatusController
	poller    *ApprovalPoller
	orderIDs  *OrderIDStore
}

type HandlerDeps struct {
	Store     OrderStore
	Dashboard *Dashboard
	Status    *StatusController
	Poller    *ApprovalPoller
	OrderIDs  *OrderIDStore
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return &Handler{
		logger:    logger,
		config:    config,
		tlm:       telemetry.NewHTTP(),
		store:     hd.Store,
		dashboard: hd.Dashboard,
		status:    hd.Status,
		poller:    hd.Poller,
		orderIDs:  hd.OrderIDs,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/orders/{orderId}/approval", h.WaitApproval)

	r.Route("/tables/{tableId}/order-ids", func(r chi.Router) {
		r.Get("/", h.GetOrderIDs)
		r.Put("/", h.SetOrderIDs)
		r.Post("/", h.MergeOrderIDs)
		r.Delete("/", h.ClearOrderIDs)
		r.Delete("/{orderId}", h.RemoveOrderID)
	})
	r.Get("/order-ids", h.ListOrderIDs)
	r.Delete("/order-ids", h.ClearAllOrderIDs)

	r.Route("/manager", func(r chi.Router) {
		r.Get("/booths/{boothId}/board", h.GetBoard)

		r.Post("/orders/{orderId}/status/{status}", h.ChangeOrderStatus)
		r.Post("/orders/{orderId}/approve", h.statusAction("Handler.ApproveOrder", h.status.Approve))
		r.Post("/orders/{orderId}/reject", h.statusAction("Handler.RejectOrder", h.status.Reject))
		r.Post("/orders/{orderId}/pending", h.statusAction("Handler.PendOrder", h.status.Pending))
		r.Post("/orders/{orderId}/finish", h.statusAction("Handler.FinishOrder", h.status.Finish))

		r.Post("/tables/{tableId}/clear", h.ClearTable)
	})
}

// Board Handlers

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetBoard")
	defer finish()

	log := h.log(r)

	boothID, ok := h.parseIDParam(w, r, log, "boothId")
	if !ok {
		return
	}
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	cards, err := h.dashboard.Board(r.Context(), boothID, refresh)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not load board")
		return
	}

	apt.Respond(w, http.StatusOK, cards, nil)
}

func (h *Handler) ChangeOrderStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ChangeOrderStatus")
	defer finish()

	log := h.log(r)

	orderID, ok := h.parseIDParam(w, r, log, "orderId")
	if !ok {
		return
	}
	target := chi.URLParam(r, "status")

	status, err := h.status.SetStatus(r.Context(), orderID, target)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not update order status")
		return
	}

	log.Info("order status changed", "order_id", orderID, "status", status)
	h.respondStatus(w, orderID, status)
}

func (h *Handler) statusAction(span string, action func(context.Context, int64) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w, r, finish := h.tlm.Start(w, r, span)
		defer finish()

		log := h.log(r)

		orderID, ok := h.parseIDParam(w, r, log, "orderId")
		if !ok {
			return
		}

		status, err := action(r.Context(), orderID)
		if err != nil {
			h.respondServiceError(w, log, err, "Could not update order status")
			return
		}

		log.Info("order status changed", "order_id", orderID, "status", status)
		h.respondStatus(w, orderID, status)
	}
}

func (h *Handler) ClearTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClearTable")
	defer finish()

	log := h.log(r)

	tableID, ok := h.parseIDParam(w, r, log, "tableId")
	if !ok {
		return
	}

	closed, err := h.store.CloseVisit(r.Context(), tableID)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not clear table")
		return
	}
	h.dashboard.Cache().InvalidateTable(tableID)

	idsCleared := true
	if err := h.orderIDs.Clear(r.Context(), tableID); err != nil {
		log.Error("cannot clear tracked order ids", "table_id", tableID, "error", err)
		idsCleared = false
	}

	log.Info("table cleared", "table_id", tableID, "closed", closed)
	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"tableId":         tableID,
		"closed":          closed,
		"orderIdsCleared": idsCleared,
	}, nil)
}

// Approval Handlers

func (h *Handler) WaitApproval(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.WaitApproval")
	defer finish()

	log := h.log(r)

	orderID, ok := h.parseIDParam(w, r, log, "orderId")
	if !ok {
		return
	}

	timeout := defaultApprovalTimeout
	if raw := r.URL.Query().Get("timeout"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			log.Debug("invalid approval timeout", "value", raw)
			apt.RespondError(w, http.StatusBadRequest, "Invalid timeout parameter")
			return
		}
		timeout = min(parsed, maxApprovalTimeout)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	status, err := h.poller.Wait(ctx, orderID)
	settled := err == nil
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		h.respondServiceError(w, log, err, "Could not check order approval")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"orderId": orderID,
		"status":  status,
		"settled": settled,
	}, nil)
}

// Order id Handlers

type orderIDsRequest struct {
	OrderIDs []int64 `json:"orderIds"`
}

func (h *Handler) ListOrderIDs(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrderIDs")
	defer finish()

	all := h.orderIDs.All()
	byTable := make(map[string][]int64, len(all))
	for tableID, ids := range all {
		byTable[strconv.FormatInt(tableID, 10)] = ids
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"idsByTable": byTable,
	}, nil)
}

func (h *Handler) GetOrderIDs(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrderIDs")
	defer finish()

	log := h.log(r)

	tableID, ok := h.parseIDParam(w, r, log, "tableId")
	if !ok {
		return
	}

	h.respondOrderIDs(w, tableID, h.orderIDs.Get(tableID))
}

func (h *Handler) SetOrderIDs(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetOrderIDs")
	defer finish()

	log := h.log(r)

	tableID, ok := h.parseIDParam(w, r, log, "tableId")
	if !ok {
		return
	}

	var req orderIDsRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	ids, err := h.orderIDs.Set(r.Context(), tableID, req.OrderIDs)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not store order ids")
		return
	}

	h.respondOrderIDs(w, tableID, ids)
}

func (h *Handler) MergeOrderIDs(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MergeOrderIDs")
	defer finish()

	log := h.log(r)

	tableID, ok := h.parseIDParam(w, r, log, "tableId")
	if !ok {
		return
	}

	var req orderIDsRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	ids, err := h.orderIDs.Merge(r.Context(), tableID, req.OrderIDs)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not store order ids")
		return
	}

	h.respondOrderIDs(w, tableID, ids)
}

func (h *Handler) RemoveOrderID(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RemoveOrderID")
	defer finish()

	log := h.log(r)

	tableID, ok := h.parseIDParam(w, r, log, "tableId")
	if !ok {
		return
	}
	orderID, ok := h.parseIDParam(w, r, log, "orderId")
	if !ok {
		return
	}

	ids, err := h.orderIDs.Remove(r.Context(), tableID, orderID)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not store order ids")
		return
	}

	h.respondOrderIDs(w, tableID, ids)
}

func (h *Handler) ClearOrderIDs(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClearOrderIDs")
	defer finish()

	log := h.log(r)

	tableID, ok := h.parseIDParam(w, r, log, "tableId")
	if !ok {
		return
	}

	if err := h.orderIDs.Clear(r.Context(), tableID); err != nil {
		h.respondServiceError(w, log, err, "Could not clear order ids")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearAllOrderIDs(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClearAllOrderIDs")
	defer finish()

	log := h.log(r)

	if err := h.orderIDs.ClearAll(r.Context()); err != nil {
		h.respondServiceError(w, log, err, "Could not clear order ids")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helpers

func (h *Handler) respondStatus(w http.ResponseWriter, orderID int64, status string) {
	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"orderId": orderID,
		"status":  status,
	}, nil)
}

func (h *Handler) respondOrderIDs(w http.ResponseWriter, tableID int64, ids []int64) {
	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"tableId":  tableID,
		"orderIds": ids,
	}, nil)
}

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
	if r.Body == nil {
		apt.RespondError(w, http.StatusBadRequest, "Request body is required")
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}
	if strings.TrimSpace(string(body)) == "" {
		log.Debug("empty request body")
		apt.RespondError(w, http.StatusBadRequest, "Request body is required")
		return false
	}

	if err := json.Unmarshal(body, target); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}

	return true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, log apt.Logger, err error, fallback string) {
	var notFound *NotFoundError
	var invalidStatus *InvalidStatusError
	var transport *TransportError

	switch {
	case errors.As(err, &notFound):
		log.Debug("resource not found", "error", err)
		apt.RespondError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &invalidStatus):
		log.Debug("invalid status", "status", invalidStatus.Status)
		apt.RespondError(w, http.StatusBadRequest, invalidStatus.Error())
	case errors.As(err, &transport):
		log.Error("order service unavailable", "op", transport.Op, "error", err)
		apt.RespondError(w, http.StatusBadGateway, fallback)
	default:
		log.Error(strings.ToLower(fallback), "error", err)
		apt.RespondError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
