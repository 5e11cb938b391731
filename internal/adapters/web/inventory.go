package web

import (
	"net/http"

	"stockbook/internal/app"
	"stockbook/internal/core"
)

// listItems handles GET /api/items.
func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListItems(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// getItem handles GET /api/items/{id}.
func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetItem(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// addItem handles POST /api/items.
func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req app.AddItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.AddItem(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

// updateItem handles PATCH /api/items/{id} — the combined update form:
// price changes and/or a quantity delta in one atomic call.
func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req app.UpdateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ItemID = urlParam(r, "id")
	res, err := h.svc.UpdateItem(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// adjustItem handles POST /api/items/{id}/adjust — a bare quantity delta at
// the item's current prices.
func (h *Handler) adjustItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta  int64             `json:"delta"`
		Reason core.ChangeReason `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.AdjustItemQuantity(r.Context(), urlParam(r, "id"), req.Delta, req.Reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// inventoryHistory handles GET /api/items/history. An optional item_id query
// parameter narrows the log to one item.
func (h *Handler) inventoryHistory(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetInventoryLog(r.Context(), r.URL.Query().Get("item_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}
