package order

import (
	"net/http"

	"github.com/appetiteclub/apt"
)

// GetBoothAccount handles GET /booths/{boothId}/account
func (h *Handler) GetBoothAccount(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetBoothAccount")
	defer finish()

	log := h.log(r)

	boothID, ok := h.parseIDParam(w, r, log, "boothId")
	if !ok {
		return
	}

	account, err := h.service.GetBoothAccount(r.Context(), boothID)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not retrieve booth account")
		return
	}

	apt.Respond(w, http.StatusOK, account, nil)
}

// SetBoothAccount handles PUT /manager/booths/{boothId}/account
func (h *Handler) SetBoothAccount(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetBoothAccount")
	defer finish()

	log := h.log(r)

	boothID, ok := h.parseIDParam(w, r, log, "boothId")
	if !ok {
		return
	}

	var req BoothAccountRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	account, err := h.service.SetBoothAccount(r.Context(), boothID, req)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not save booth account")
		return
	}

	log.Info("booth account updated", "booth_id", boothID)
	apt.Respond(w, http.StatusOK, account, nil)
}
