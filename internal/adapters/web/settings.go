package web

import "net/http"

// Destructive maintenance endpoints require the caller to type an exact
// confirmation phrase, mirroring the UI's confirm dialogs.
const (
	confirmReset = "RESET BILLS"
	confirmPurge = "DELETE"
)

// resetBills handles POST /api/settings/reset — deletes every bill after
// returning its reserved stock.
func (h *Handler) resetBills(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirmation string `json:"confirmation"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Confirmation != confirmReset {
		writeError(w, r, "confirmation phrase mismatch", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	res, err := h.svc.ResetBills(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// purgeAllData handles POST /api/settings/purge — wipes items, logs and
// bills. User accounts survive.
func (h *Handler) purgeAllData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirmation string `json:"confirmation"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Confirmation != confirmPurge {
		writeError(w, r, "confirmation phrase mismatch", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.PurgeAllData(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
