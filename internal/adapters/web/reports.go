package web

import (
	"net/http"
	"strconv"
)

// profitReport handles GET /api/reports/profit — the full profit analysis
// payload: per-day realized profit, per-day sales vs purchases, and the
// per-bill breakdown (optionally filtered by status query param).
func (h *Handler) profitReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	daily, err := h.svc.GetDailyProfit(ctx)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	flow, err := h.svc.GetDailyFlow(ctx)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	perBill, err := h.svc.GetProfitPerBill(ctx, r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{
		"daily_profit": daily,
		"daily_flow":   flow,
		"per_bill":     perBill,
	})
}

// outstandingRevenue handles GET /api/reports/outstanding.
func (h *Handler) outstandingRevenue(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetOutstandingRevenue(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// exportDailyReport handles GET /api/reports/daily.xlsx — streams the
// spreadsheet for the previous business day.
func (h *Handler) exportDailyReport(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ExportDailyReport(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	_, _ = w.Write(res.Data)
}

// logBook handles GET /api/logbook — the bill audit trail.
func (h *Handler) logBook(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetLogBook(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}
