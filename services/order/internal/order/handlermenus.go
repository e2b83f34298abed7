package order

import (
	"net/http"

	"github.com/appetiteclub/apt"
)

// ListMenu handles GET /booths/{boothId}/menus
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListMenu")
	defer finish()

	log := h.log(r)

	boothID, ok := h.parseIDParam(w, r, log, "boothId")
	if !ok {
		return
	}

	items, err := h.service.ListMenu(r.Context(), boothID)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not retrieve menu")
		return
	}

	apt.Respond(w, http.StatusOK, items, nil)
}

// ListManagerMenu handles GET /manager/booths/{boothId}/menus
func (h *Handler) ListManagerMenu(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListManagerMenu")
	defer finish()

	log := h.log(r)

	boothID, ok := h.parseIDParam(w, r, log, "boothId")
	if !ok {
		return
	}

	items, err := h.service.ListManagerMenu(r.Context(), boothID)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not retrieve menu")
		return
	}

	apt.Respond(w, http.StatusOK, items, nil)
}

// GetMenuItem handles GET /booths/{boothId}/menus/{menuItemId}
func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetMenuItem")
	defer finish()

	log := h.log(r)

	boothID, ok := h.parseIDParam(w, r, log, "boothId")
	if !ok {
		return
	}
	id, ok := h.parseIDParam(w, r, log, "menuItemId")
	if !ok {
		return
	}

	item, err := h.service.GetMenuItem(r.Context(), boothID, id)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not retrieve menu item")
		return
	}

	apt.Respond(w, http.StatusOK, item, nil)
}

// CreateMenuItem handles POST /manager/booths/{boothId}/menus
func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateMenuItem")
	defer finish()

	log := h.log(r)

	boothID, ok := h.parseIDParam(w, r, log, "boothId")
	if !ok {
		return
	}

	var req MenuCreateRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	item, err := h.service.CreateMenuItem(r.Context(), boothID, req)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not create menu item")
		return
	}

	log.Info("menu item created", "booth_id", boothID, "menu_item_id", item.ID)
	apt.Respond(w, http.StatusCreated, item, nil)
}

// PatchMenuItem handles PATCH /manager/booths/{boothId}/menus/{menuItemId}
func (h *Handler) PatchMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PatchMenuItem")
	defer finish()

	log := h.log(r)

	boothID, ok := h.parseIDParam(w, r, log, "boothId")
	if !ok {
		return
	}
	id, ok := h.parseIDParam(w, r, log, "menuItemId")
	if !ok {
		return
	}

	var req MenuPatchRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	item, err := h.service.PatchMenuItem(r.Context(), boothID, id, req)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not update menu item")
		return
	}

	apt.Respond(w, http.StatusOK, item, nil)
}

// DeleteMenuItem handles DELETE /manager/booths/{boothId}/menus/{menuItemId}
func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteMenuItem")
	defer finish()

	log := h.log(r)

	boothID, ok := h.parseIDParam(w, r, log, "boothId")
	if !ok {
		return
	}
	id, ok := h.parseIDParam(w, r, log, "menuItemId")
	if !ok {
		return
	}

	hidden, err := h.service.DeleteMenuItem(r.Context(), boothID, id)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not delete menu item")
		return
	}

	if hidden {
		log.Info("menu item hidden instead of deleted", "menu_item_id", id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleAvailable handles POST /manager/menus/{menuItemId}/toggle-available
func (h *Handler) ToggleAvailable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ToggleAvailable")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log, "menuItemId")
	if !ok {
		return
	}

	var req ToggleAvailableRequest
	if _, ok := h.decodeOptionalPayload(w, r, log, &req); !ok {
		return
	}

	item, err := h.service.ToggleAvailable(r.Context(), id, req.Available)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not toggle menu item")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"menuItemId": item.ID,
		"available":  item.Available,
	}, nil)
}
