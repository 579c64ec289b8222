package api

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zeltlager/lagerkasse/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	campsHandler := &CampsHandler{DB: db}
	participantsHandler := &ParticipantsHandler{DB: db}
	productsHandler := &ProductsHandler{DB: db}
	transactionsHandler := &TransactionsHandler{DB: db}
	ledgerHandler := &LedgerHandler{DB: db}
	dashboardHandler := &DashboardHandler{DB: db}
	auditHandler := &AuditHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public.
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/login", authHandler.Login)

	// Authenticated.
	mux.Handle("POST /api/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Camps: read (all roles), write (admin).
	mux.Handle("GET /api/camps", authMW(http.HandlerFunc(campsHandler.List)))
	mux.Handle("POST /api/camps", authMW(requireAdmin(http.HandlerFunc(campsHandler.Create))))
	mux.Handle("GET /api/camps/{id}", authMW(http.HandlerFunc(campsHandler.Get)))
	mux.Handle("PUT /api/camps/{id}", authMW(requireAdmin(http.HandlerFunc(campsHandler.Update))))
	mux.Handle("DELETE /api/camps/{id}", authMW(requireAdmin(http.HandlerFunc(campsHandler.Delete))))
	mux.Handle("POST /api/camps/{id}/activate", authMW(requireAdmin(http.HandlerFunc(campsHandler.Activate))))

	// Participants (all roles, the register desk runs as cashier).
	mux.Handle("GET /api/participants", authMW(http.HandlerFunc(participantsHandler.List)))
	mux.Handle("POST /api/participants", authMW(http.HandlerFunc(participantsHandler.Create)))
	mux.Handle("GET /api/participants/{id}", authMW(http.HandlerFunc(participantsHandler.Get)))
	mux.Handle("PUT /api/participants/{id}", authMW(http.HandlerFunc(participantsHandler.Update)))
	mux.Handle("PUT /api/participants/{id}/balance", authMW(requireAdmin(http.HandlerFunc(participantsHandler.SetBalance))))
	mux.Handle("DELETE /api/participants/{id}", authMW(requireAdmin(http.HandlerFunc(participantsHandler.Delete))))

	// Products: read (all roles), write (admin).
	mux.Handle("GET /api/products", authMW(http.HandlerFunc(productsHandler.List)))
	mux.Handle("POST /api/products", authMW(requireAdmin(http.HandlerFunc(productsHandler.Create))))
	mux.Handle("GET /api/products/{id}", authMW(http.HandlerFunc(productsHandler.Get)))
	mux.Handle("PUT /api/products/{id}", authMW(requireAdmin(http.HandlerFunc(productsHandler.Update))))
	mux.Handle("DELETE /api/products/{id}", authMW(requireAdmin(http.HandlerFunc(productsHandler.Delete))))
	mux.Handle("PUT /api/products/{id}/image", authMW(requireAdmin(http.HandlerFunc(productsHandler.UploadImage))))
	mux.Handle("GET /api/products/{id}/image", authMW(http.HandlerFunc(productsHandler.GetImage)))

	// Transactions are append-only, so the API only exposes reads.
	mux.Handle("GET /api/transactions", authMW(http.HandlerFunc(transactionsHandler.List)))
	mux.Handle("GET /api/transactions/{id}", authMW(http.HandlerFunc(transactionsHandler.Get)))

	// Ledger operations (all roles).
	mux.Handle("POST /api/ledger/checkout", authMW(http.HandlerFunc(ledgerHandler.Checkout)))
	mux.Handle("POST /api/ledger/topup", authMW(http.HandlerFunc(ledgerHandler.TopUp)))
	mux.Handle("POST /api/ledger/checkin", authMW(http.HandlerFunc(ledgerHandler.CheckIn)))
	mux.Handle("POST /api/ledger/storno", authMW(http.HandlerFunc(ledgerHandler.Storno)))
	mux.Handle("GET /api/ledger/settlement/{participantID}", authMW(http.HandlerFunc(ledgerHandler.SettlementPreview)))
	mux.Handle("POST /api/ledger/settlement/{participantID}", authMW(http.HandlerFunc(ledgerHandler.Settle)))
	mux.Handle("GET /api/ledger/prognosis/{participantID}", authMW(http.HandlerFunc(ledgerHandler.Prognosis)))

	// Overview and audit trail.
	mux.Handle("GET /api/dashboard", authMW(http.HandlerFunc(dashboardHandler.Get)))
	mux.Handle("GET /api/audit", authMW(requireAdmin(http.HandlerFunc(auditHandler.List))))

	return mux
}
