package order

import (
	"net/http"
	"strconv"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
)

const defaultRankingLimit = 10

func (h *Handler) registerStatsRoutes(r chi.Router) {
	r.Get("/booths/stats/date/{date}", h.AllBoothsSummary)
	r.Get("/booths/{boothId}/stats/date/{date}", h.SummaryByDate)
	r.Get("/booths/{boothId}/stats/menu-sales", h.MenuSales)
	r.Get("/booths/{boothId}/stats/today", h.TodayStats)
	r.Get("/booths/{boothId}/menus/{menuItemId}/metrics/total-orders", h.MenuTotalOrders)
	r.Get("/rankings/menu", h.MenuRanking)
	r.Get("/order/stats/date/{date}", h.AllBoothsOrders)
	r.Get("/tableVisit/stats/date/{date}", h.VisitDurations)
}

func (h *Handler) SummaryByDate(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SummaryByDate")
	defer finish()

	log := h.log(r)

	boothID, ok := h.parseIDParam(w, r, log, "boothId")
	if !ok {
		return
	}
	day, ok := h.parseDate(w, r, log, chi.URLParam(r, "date"))
	if !ok {
		return
	}

	summary, err := h.service.SummaryByDate(r.Context(), boothID, day)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not compute stats")
		return
	}

	apt.Respond(w, http.StatusOK, summary, nil)
}

func (h *Handler) MenuSales(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MenuSales")
	defer finish()

	log := h.log(r)

	boothID, ok := h.parseIDParam(w, r, log, "boothId")
	if !ok {
		return
	}

	day := h.service.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, ok = h.parseDate(w, r, log, raw)
		if !ok {
			return
		}
	}

	items, err := h.service.MenuSales(r.Context(), boothID, day)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not compute menu sales")
		return
	}

	apt.Respond(w, http.StatusOK, items, nil)
}

func (h *Handler) TodayStats(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.TodayStats")
	defer finish()

	log := h.log(r)

	boothID, ok := h.parseIDParam(w, r, log, "boothId")
	if !ok {
		return
	}
	top, ok := h.parseIntQuery(w, r, log, "top", defaultTopItems)
	if !ok {
		return
	}

	stats, err := h.service.TodayStats(r.Context(), boothID, top)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not compute stats")
		return
	}

	apt.Respond(w, http.StatusOK, stats, nil)
}

func (h *Handler) MenuRanking(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MenuRanking")
	defer finish()

	log := h.log(r)

	boothID, err := strconv.ParseInt(r.URL.Query().Get("boothId"), 10, 64)
	if err != nil || boothID <= 0 {
		log.Debug("invalid boothId query parameter")
		apt.RespondError(w, http.StatusBadRequest, "Invalid boothId parameter")
		return
	}
	limit, ok := h.parseIntQuery(w, r, log, "limit", defaultRankingLimit)
	if !ok {
		return
	}

	ranking, err := h.service.MenuRanking(r.Context(), boothID, r.URL.Query().Get("metric"), limit)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not compute ranking")
		return
	}

	apt.Respond(w, http.StatusOK, ranking, nil)
}

func (h *Handler) MenuTotalOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MenuTotalOrders")
	defer finish()

	log := h.log(r)

	boothID, ok := h.parseIDParam(w, r, log, "boothId")
	if !ok {
		return
	}
	menuItemID, ok := h.parseIDParam(w, r, log, "menuItemId")
	if !ok {
		return
	}

	total, err := h.service.MenuTotalOrders(r.Context(), boothID, menuItemID)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not compute menu total")
		return
	}

	apt.Respond(w, http.StatusOK, total, nil)
}

func (h *Handler) AllBoothsSummary(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AllBoothsSummary")
	defer finish()

	log := h.log(r)

	day, ok := h.parseDate(w, r, log, chi.URLParam(r, "date"))
	if !ok {
		return
	}

	summary, err := h.service.AllBoothsSummary(r.Context(), day)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not compute stats")
		return
	}

	apt.Respond(w, http.StatusOK, summary, nil)
}

func (h *Handler) AllBoothsOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AllBoothsOrders")
	defer finish()

	log := h.log(r)

	day, ok := h.parseDate(w, r, log, chi.URLParam(r, "date"))
	if !ok {
		return
	}

	orders, err := h.service.AllBoothsOrders(r.Context(), day)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not list orders")
		return
	}

	apt.Respond(w, http.StatusOK, orders, nil)
}

func (h *Handler) VisitDurations(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.VisitDurations")
	defer finish()

	log := h.log(r)

	day, ok := h.parseDate(w, r, log, chi.URLParam(r, "date"))
	if !ok {
		return
	}

	minutes, err := h.service.VisitDurations(r.Context(), day)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not compute visit durations")
		return
	}

	apt.Respond(w, http.StatusOK, minutes, nil)
}

func (h *Handler) parseDate(w http.ResponseWriter, r *http.Request, log apt.Logger, raw string) (time.Time, bool) {
	day, err := ParseDate(raw, h.service.Location())
	if err != nil {
		log.Debug("invalid date parameter", "date", raw)
		apt.RespondError(w, http.StatusBadRequest, "Invalid date, expected yyyy-MM-dd")
		return time.Time{}, false
	}
	return day, true
}

func (h *Handler) parseIntQuery(w http.ResponseWriter, r *http.Request, log apt.Logger, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Debug("invalid query parameter", "param", name, "value", raw)
		apt.RespondError(w, http.StatusBadRequest, "Invalid "+name+" parameter")
		return 0, false
	}
	return v, true
}
