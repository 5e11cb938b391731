package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stockbook/internal/app"
	"stockbook/internal/core"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{svc: svc, jwtSecret: jwtSecret}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Authenticated ─────────────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Get("/api/auth/me", h.me)
		r.Post("/api/stepup", h.stepUp)
		r.Post("/api/users/me/password", h.changeOwnPassword)

		// Billing is open to every role, Biller included.
		r.Get("/api/bills", h.listBills)
		r.Post("/api/bills", h.createBill)
		r.Get("/api/bills/available/{id}", h.billEditAvailability)
		r.Get("/api/bills/{id}", h.getBill)
		r.Put("/api/bills/{id}", h.editBill)
		r.Delete("/api/bills/{id}", h.deleteBill)
		r.Post("/api/bills/{id}/pay", h.payBill)

		// Inventory and reporting: Admin and Co-Admin.
		r.Group(func(r chi.Router) {
			r.Use(h.RequireRole(core.RoleAdmin, core.RoleCoAdmin))

			r.Get("/api/items", h.listItems)
			r.Post("/api/items", h.addItem)
			r.Get("/api/items/{id}", h.getItem)
			r.Patch("/api/items/{id}", h.updateItem)
			r.Post("/api/items/{id}/adjust", h.adjustItem)
			r.Get("/api/reports/daily.xlsx", h.exportDailyReport)
			r.Post("/api/settings/reset", h.resetBills)

			// Sensitive reads additionally require the step-up token.
			r.Group(func(r chi.Router) {
				r.Use(h.RequireStepUp)
				r.Get("/api/items/history", h.inventoryHistory)
				r.Get("/api/reports/profit", h.profitReport)
				r.Get("/api/reports/outstanding", h.outstandingRevenue)
			})
		})

		// Admin only.
		r.Group(func(r chi.Router) {
			r.Use(h.RequireRole(core.RoleAdmin))

			r.Get("/api/users", h.listUsers)
			r.Post("/api/users", h.createUser)
			r.Put("/api/users/{username}", h.updateUser)
			r.Delete("/api/users/{username}", h.deleteUser)
			r.Post("/api/settings/purge", h.purgeAllData)

			r.With(h.RequireStepUp).Get("/api/logbook", h.logBook)
		})
	})

	return r
}

// health handles GET /api/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// decodeJSON decodes the request body into v, writing the error response
// itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// urlParam is a thin wrapper so handlers read uniformly.
func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}
