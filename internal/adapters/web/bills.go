package web

import (
	"net/http"

	"stockbook/internal/app"
)

// listBills handles GET /api/bills. Query params: status=Paid|Unpaid filters
// by payment status; editable=true restricts to the current business day's
// bills, the only ones open for editing.
func (h *Handler) listBills(w http.ResponseWriter, r *http.Request) {
	var (
		res *app.BillListResult
		err error
	)
	if r.URL.Query().Get("editable") == "true" {
		res, err = h.svc.ListEditableBills(r.Context())
	} else {
		res, err = h.svc.ListBills(r.Context(), r.URL.Query().Get("status"))
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// getBill handles GET /api/bills/{id}.
func (h *Handler) getBill(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetBill(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// createBill handles POST /api/bills.
func (h *Handler) createBill(w http.ResponseWriter, r *http.Request) {
	var req app.CreateBillRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Actor = authFromContext(r.Context()).Username
	res, err := h.svc.CreateBill(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

// billEditAvailability handles GET /api/bills/available/{id} — the item list
// an editor of this bill must see, with the bill's own reservations added
// back to on-hand stock.
func (h *Handler) billEditAvailability(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.GetBillEditAvailability(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, items)
}

// editBill handles PUT /api/bills/{id}.
func (h *Handler) editBill(w http.ResponseWriter, r *http.Request) {
	var req app.EditBillRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.BillID = urlParam(r, "id")
	req.Actor = authFromContext(r.Context()).Username
	res, err := h.svc.EditBill(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// deleteBill handles DELETE /api/bills/{id}.
func (h *Handler) deleteBill(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteBill(r.Context(), urlParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// payBill handles POST /api/bills/{id}/pay.
func (h *Handler) payBill(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.MarkBillPaid(r.Context(), urlParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "Paid"})
}
