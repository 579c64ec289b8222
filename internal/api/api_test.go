package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/zeltlager/lagerkasse/internal/auth"
	"github.com/zeltlager/lagerkasse/internal/db"
	"github.com/zeltlager/lagerkasse/internal/model"
	"github.com/zeltlager/lagerkasse/internal/store"
)

const testJWTSecret = "test-secret"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create admin user.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "admin", string(hash), model.RoleAdmin)

	// Get token.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "password1"})
	resp, err := http.Post(server.URL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token := loginResp["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}

	return server, token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// doJSON runs an authenticated request and decodes the JSON response into out.
func doJSON(t *testing.T, method, url, token string, body, out any) int {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func TestLoginEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server, token := setupTestServer(t)

	if status := doJSON(t, "POST", server.URL+"/api/logout", token, nil, nil); status != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", status)
	}

	// The same token must stop working.
	if status := doJSON(t, "GET", server.URL+"/api/camps", token, nil, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", status)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	resp, _ := http.Get(server.URL + "/api/participants")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Health check stays public.
	resp, _ = http.Get(server.URL + "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for healthz, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "kasse1", string(hash), model.RoleCashier)

	cashierToken, _ := auth.GenerateToken(testJWTSecret, 1, "kasse1", model.RoleCashier)

	// Cashiers cannot create products.
	req, _ := authRequest("POST", server.URL+"/api/products", cashierToken, map[string]any{
		"name": "Cola", "price": "1.50",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for cashier creating product, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Cashiers cannot access user management or the audit trail.
	for _, path := range []string{"/api/users", "/api/audit"} {
		req, _ = authRequest("GET", server.URL+path, cashierToken, nil)
		resp, _ = http.DefaultClient.Do(req)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("expected 403 for cashier on %s, got %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

// TestRegisterFlow walks the full lifecycle: create and activate a camp,
// check in a participant with a deposit, sell, reverse a sale, and settle.
func TestRegisterFlow(t *testing.T) {
	server, token := setupTestServer(t)

	// Camp.
	var camp model.Camp
	status := doJSON(t, "POST", server.URL+"/api/camps", token, map[string]any{
		"name":       "Sommerlager",
		"start_date": "2026-08-01",
		"end_date":   "2026-08-14",
	}, &camp)
	if status != http.StatusCreated {
		t.Fatalf("create camp: expected 201, got %d", status)
	}
	if status := doJSON(t, "POST", fmt.Sprintf("%s/api/camps/%d/activate", server.URL, camp.ID), token, nil, nil); status != http.StatusOK {
		t.Fatalf("activate camp: expected 200, got %d", status)
	}

	// Product.
	var product model.Product
	status = doJSON(t, "POST", server.URL+"/api/products", token, map[string]any{
		"name": "Cola", "price": "1.50", "stock": 10, "icon": "🥤",
	}, &product)
	if status != http.StatusCreated {
		t.Fatalf("create product: expected 201, got %d", status)
	}

	// Participant with start credit.
	var participant model.Participant
	status = doJSON(t, "POST", server.URL+"/api/participants", token, map[string]any{
		"name": "Mia", "initial_balance": "20.00",
	}, &participant)
	if status != http.StatusCreated {
		t.Fatalf("create participant: expected 201, got %d", status)
	}
	if !participant.Balance.Equal(dec("20")) || !participant.InitialBalance.Equal(dec("20")) {
		t.Errorf("start credit not booked: balance %s initial %s", participant.Balance, participant.InitialBalance)
	}

	// Check in with an extra deposit.
	status = doJSON(t, "POST", server.URL+"/api/ledger/checkin", token, map[string]any{
		"participant_id": participant.ID, "amount": "5.00",
	}, &participant)
	if status != http.StatusOK {
		t.Fatalf("checkin: expected 200, got %d", status)
	}
	if !participant.IsCheckedIn || !participant.Balance.Equal(dec("25")) {
		t.Errorf("after checkin: checked_in=%v balance=%s", participant.IsCheckedIn, participant.Balance)
	}

	// Checkout two Cola.
	var checkout struct {
		Transactions []model.Transaction `json:"transactions"`
	}
	status = doJSON(t, "POST", server.URL+"/api/ledger/checkout", token, map[string]any{
		"participant_id": participant.ID,
		"cart":           []map[string]any{{"product_id": product.ID, "quantity": 2}},
	}, &checkout)
	if status != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d", status)
	}
	if len(checkout.Transactions) != 1 {
		t.Fatalf("expected 1 transaction line, got %d", len(checkout.Transactions))
	}

	// Reverse the sale.
	var reversal model.Transaction
	status = doJSON(t, "POST", server.URL+"/api/ledger/storno", token, map[string]any{
		"transaction_id": checkout.Transactions[0].ID,
	}, &reversal)
	if status != http.StatusCreated {
		t.Fatalf("storno: expected 201, got %d", status)
	}
	if !reversal.IsStorno {
		t.Error("expected a storno row")
	}

	// Second storno of the same row conflicts.
	status = doJSON(t, "POST", server.URL+"/api/ledger/storno", token, map[string]any{
		"transaction_id": checkout.Transactions[0].ID,
	}, nil)
	if status != http.StatusConflict {
		t.Errorf("double storno: expected 409, got %d", status)
	}

	// Settlement preview and confirmation.
	var preview struct {
		RefundAmount decimal.Decimal `json:"refund_amount"`
	}
	status = doJSON(t, "GET", fmt.Sprintf("%s/api/ledger/settlement/%d", server.URL, participant.ID), token, nil, &preview)
	if status != http.StatusOK {
		t.Fatalf("settlement preview: expected 200, got %d", status)
	}
	// Deposits 20 + 5 plus the 3.00 storno reversal row; nothing spent.
	if !preview.RefundAmount.Equal(dec("28")) {
		t.Errorf("expected refund 28, got %s", preview.RefundAmount)
	}

	status = doJSON(t, "POST", fmt.Sprintf("%s/api/ledger/settlement/%d", server.URL, participant.ID), token, nil, nil)
	if status != http.StatusOK {
		t.Fatalf("settle: expected 200, got %d", status)
	}

	status = doJSON(t, "GET", fmt.Sprintf("%s/api/participants/%d", server.URL, participant.ID), token, nil, &participant)
	if status != http.StatusOK {
		t.Fatalf("get participant: expected 200, got %d", status)
	}
	if participant.IsCheckedIn || !participant.Balance.IsZero() {
		t.Errorf("after settlement: checked_in=%v balance=%s", participant.IsCheckedIn, participant.Balance)
	}
}

func TestCheckoutInsufficientBalance(t *testing.T) {
	server, token := setupTestServer(t)

	var camp model.Camp
	doJSON(t, "POST", server.URL+"/api/camps", token, map[string]any{
		"name": "Strenges Lager", "require_positive_balance": true,
	}, &camp)
	doJSON(t, "POST", fmt.Sprintf("%s/api/camps/%d/activate", server.URL, camp.ID), token, nil, nil)

	var product model.Product
	doJSON(t, "POST", server.URL+"/api/products", token, map[string]any{
		"name": "Pommes", "price": "3.00", "stock": 5,
	}, &product)

	var participant model.Participant
	doJSON(t, "POST", server.URL+"/api/participants", token, map[string]any{
		"name": "Jonas", "initial_balance": "1.00",
	}, &participant)

	status := doJSON(t, "POST", server.URL+"/api/ledger/checkout", token, map[string]any{
		"participant_id": participant.ID,
		"cart":           []map[string]any{{"product_id": product.ID, "quantity": 1}},
	}, nil)
	if status != http.StatusPaymentRequired {
		t.Errorf("expected 402 under positive-balance policy, got %d", status)
	}
}

func TestLedgerValidationErrors(t *testing.T) {
	server, token := setupTestServer(t)

	// No active camp yet.
	status := doJSON(t, "POST", server.URL+"/api/ledger/topup", token, map[string]any{
		"participant_id": 1, "amount": "5.00",
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 without active camp, got %d", status)
	}

	var camp model.Camp
	doJSON(t, "POST", server.URL+"/api/camps", token, map[string]any{"name": "Lager"}, &camp)
	doJSON(t, "POST", fmt.Sprintf("%s/api/camps/%d/activate", server.URL, camp.ID), token, nil, nil)

	// Unknown participant.
	status = doJSON(t, "POST", server.URL+"/api/ledger/topup", token, map[string]any{
		"participant_id": 9999, "amount": "5.00",
	}, nil)
	if status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown participant, got %d", status)
	}
}
