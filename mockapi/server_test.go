package mockapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"gestion-admin/client"
	"gestion-admin/config"
	"gestion-admin/mockapi/store"
	"gestion-admin/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		AllowedOrigins:  "*",
		BodyLimitBytes:  4 * 1024 * 1024,
	}
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store.PasswordCost = bcrypt.MinCost
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := OpenStore("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	app, _, err := New(Options{Config: testConfig(), DB: db, Users: DefaultUsers, Quiet: true})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return app
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func login(t *testing.T, app *fiber.App, user, password string) models.LoginResponse {
	t.Helper()
	status, body := call(t, app, http.MethodPost, "/api/auth/login/", "",
		map[string]string{"username": user, "password": password})
	if status != http.StatusOK {
		t.Fatalf("login %s: %d %s", user, status, body)
	}
	var lr models.LoginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		t.Fatal(err)
	}
	return lr
}

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return m
}

func TestLoginRefreshLogout(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, http.MethodPost, "/api/auth/login/", "",
		map[string]string{"username": "admin", "password": "wrong"})
	if status != http.StatusUnauthorized {
		t.Fatalf("bad password: %d", status)
	}
	if client.MessageFromBody(body) == "" {
		t.Fatalf("no detail in %s", body)
	}

	lr := login(t, app, "admin", "admin1234")
	if lr.Access == "" || lr.Refresh == "" || lr.User.Role != models.RoleAdmin {
		t.Fatalf("login response %+v", lr)
	}

	status, body = call(t, app, http.MethodPost, "/api/auth/token/refresh/", "", map[string]string{"refresh": lr.Refresh})
	if status != http.StatusOK || decode(t, body)["access"] == "" {
		t.Fatalf("refresh: %d %s", status, body)
	}

	// An access token is not a refresh token.
	status, _ = call(t, app, http.MethodPost, "/api/auth/token/refresh/", "", map[string]string{"refresh": lr.Access})
	if status != http.StatusUnauthorized {
		t.Fatalf("access used as refresh: %d", status)
	}

	status, _ = call(t, app, http.MethodPost, "/api/auth/logout/", "", map[string]string{"refresh": lr.Refresh})
	if status != http.StatusOK {
		t.Fatalf("logout: %d", status)
	}
	status, _ = call(t, app, http.MethodPost, "/api/auth/token/refresh/", "", map[string]string{"refresh": lr.Refresh})
	if status != http.StatusUnauthorized {
		t.Fatalf("revoked refresh accepted: %d", status)
	}
}

func TestAuthAndRoleGate(t *testing.T) {
	app := newTestApp(t)

	if status, _ := call(t, app, http.MethodGet, "/api/invoices/", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("no token: %d", status)
	}
	if status, _ := call(t, app, http.MethodGet, "/api/invoices/", "garbage", nil); status != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", status)
	}

	sales := login(t, app, "commercial", "commercial1234")
	if status, _ := call(t, app, http.MethodGet, "/api/products/", sales.Access, nil); status != http.StatusForbidden {
		t.Fatalf("commercial on products: %d", status)
	}
	if status, _ := call(t, app, http.MethodGet, "/api/dashboard/stats/", sales.Access, nil); status != http.StatusForbidden {
		t.Fatalf("commercial on dashboard: %d", status)
	}
	status, body := call(t, app, http.MethodGet, "/api/invoices/", sales.Access, nil)
	if status != http.StatusOK {
		t.Fatalf("commercial on invoices: %d", status)
	}
	list, err := client.DecodeList[models.Invoice](body)
	if err != nil || len(list) != 0 {
		t.Fatalf("invoices = %v, %v", list, err)
	}
}

func TestValidationErrorsAreFieldLists(t *testing.T) {
	app := newTestApp(t)
	admin := login(t, app, "admin", "admin1234")

	status, body := call(t, app, http.MethodPost, "/api/expenses/", admin.Access,
		map[string]any{"title": "Papier", "category": "FOURNITURE", "amount": 0})
	if status != http.StatusBadRequest {
		t.Fatalf("status %d %s", status, body)
	}
	var fields map[string][]string
	if err := json.Unmarshal(body, &fields); err != nil {
		t.Fatalf("body %s: %v", body, err)
	}
	if len(fields["amount"]) != 1 {
		t.Fatalf("fields = %v", fields)
	}
	if got := client.MessageFromBody(body); got != fields["amount"][0] {
		t.Fatalf("client message %q", got)
	}
}

func createProduct(t *testing.T, app *fiber.App, token, name string, qty int, price float64) int {
	t.Helper()
	status, body := call(t, app, http.MethodPost, "/api/products/", token, map[string]any{
		"name": name, "quantity": qty, "purchase_price": price / 2, "sale_price": price, "alert_threshold": 1,
	})
	if status != http.StatusCreated {
		t.Fatalf("create product: %d %s", status, body)
	}
	return int(decode(t, body)["id"].(float64))
}

func productQty(t *testing.T, app *fiber.App, token string, id int) int {
	t.Helper()
	status, body := call(t, app, http.MethodGet, "/api/products/"+strconv.Itoa(id)+"/", token, nil)
	if status != http.StatusOK {
		t.Fatalf("get product: %d", status)
	}
	return int(decode(t, body)["quantity"].(float64))
}

func TestInvoiceMovesStock(t *testing.T) {
	app := newTestApp(t)
	tok := login(t, app, "admin", "admin1234").Access
	pid := createProduct(t, app, tok, "Caméra IP", 10, 50000)

	status, body := call(t, app, http.MethodPost, "/api/invoices/", tok, map[string]any{
		"client_name": "Awa Ndiaye",
		"is_proforma": false,
		"items":       []map[string]any{{"product": pid, "quantity": 3, "unit_price": 50000}},
	})
	if status != http.StatusCreated {
		t.Fatalf("create invoice: %d %s", status, body)
	}
	var inv models.Invoice
	if err := json.Unmarshal(body, &inv); err != nil {
		t.Fatal(err)
	}
	if len(inv.InvoiceItems) != 1 || inv.InvoiceItems[0].ProductName != "Caméra IP" {
		t.Fatalf("items = %+v", inv.InvoiceItems)
	}
	if inv.TotalHT != 150000 || inv.TotalTTC != 177000 {
		t.Fatalf("totals %v / %v", inv.TotalHT, inv.TotalTTC)
	}
	if got := productQty(t, app, tok, pid); got != 7 {
		t.Fatalf("stock after invoice = %d", got)
	}

	path := "/api/invoices/" + strconv.Itoa(inv.ID) + "/"
	if status, body := call(t, app, http.MethodPost, path+"items/", tok,
		map[string]any{"product": pid, "quantity": 2, "unit_price": 50000}); status != http.StatusCreated {
		t.Fatalf("add item: %d %s", status, body)
	}
	if got := productQty(t, app, tok, pid); got != 5 {
		t.Fatalf("stock after add item = %d", got)
	}

	if status, _ := call(t, app, http.MethodDelete, path+"items/", tok, map[string]int{"item_id": 2}); status != http.StatusOK {
		t.Fatalf("delete item: %d", status)
	}
	if got := productQty(t, app, tok, pid); got != 7 {
		t.Fatalf("stock after delete item = %d", got)
	}

	// Asking for more than the stock fails and changes nothing.
	status, body = call(t, app, http.MethodPost, path+"items/", tok,
		map[string]any{"product": pid, "quantity": 99, "unit_price": 50000})
	if status != http.StatusBadRequest || !strings.Contains(client.MessageFromBody(body), "Stock insuffisant") {
		t.Fatalf("oversell: %d %s", status, body)
	}
	if got := productQty(t, app, tok, pid); got != 7 {
		t.Fatalf("stock after refused item = %d", got)
	}

	if status, _ := call(t, app, http.MethodPost, path+"cancel/", tok, nil); status != http.StatusOK {
		t.Fatalf("cancel: %d", status)
	}
	if got := productQty(t, app, tok, pid); got != 10 {
		t.Fatalf("stock after cancel = %d", got)
	}
}

func TestQuoteConvertsOnce(t *testing.T) {
	app := newTestApp(t)
	tok := login(t, app, "admin", "admin1234").Access
	pid := createProduct(t, app, tok, "Routeur", 5, 20000)

	status, body := call(t, app, http.MethodPost, "/api/quotes/", tok, map[string]any{
		"client_name": "Moussa Diop",
		"company":     "SSE",
		"items":       []map[string]any{{"product": pid, "quantity": 2, "unit_price": 20000}},
	})
	if status != http.StatusCreated {
		t.Fatalf("create quote: %d %s", status, body)
	}
	q := decode(t, body)
	if q["status"] != models.QuoteDraft || q["quote_number"] == "" {
		t.Fatalf("quote = %v", q)
	}
	path := "/api/quotes/" + strconv.Itoa(int(q["id"].(float64))) + "/"

	if status, body := call(t, app, http.MethodPost, path+"mark_as_accepted/", tok, nil); status != http.StatusOK ||
		decode(t, body)["status"] != models.QuoteAccepted {
		t.Fatalf("accept: %d %s", status, body)
	}

	status, body = call(t, app, http.MethodPost, path+"convert_to_invoice/", tok, nil)
	if status != http.StatusCreated {
		t.Fatalf("convert: %d %s", status, body)
	}
	var conv models.QuoteConversion
	if err := json.Unmarshal(body, &conv); err != nil || conv.Invoice.ID == 0 || conv.Invoice.Company != "SSE" {
		t.Fatalf("conversion = %+v, %v", conv, err)
	}
	if got := productQty(t, app, tok, pid); got != 3 {
		t.Fatalf("stock after conversion = %d", got)
	}

	status, body = call(t, app, http.MethodPost, path+"convert_to_invoice/", tok, nil)
	if status != http.StatusBadRequest || client.MessageFromBody(body) != "Ce devis a déjà été converti en facture" {
		t.Fatalf("second convert: %d %s", status, body)
	}
}

func TestSoftDeleteHidesRecord(t *testing.T) {
	app := newTestApp(t)
	tok := login(t, app, "admin", "admin1234").Access
	pid := createProduct(t, app, tok, "Switch", 1, 1000)

	if status, _ := call(t, app, http.MethodPost, "/api/products/"+strconv.Itoa(pid)+"/soft_delete/", tok, nil); status != http.StatusOK {
		t.Fatalf("soft delete: %d", status)
	}
	if status, _ := call(t, app, http.MethodGet, "/api/products/"+strconv.Itoa(pid)+"/", tok, nil); status != http.StatusNotFound {
		t.Fatalf("deleted product still visible: %d", status)
	}
	if status, _ := call(t, app, http.MethodPost, "/api/products/"+strconv.Itoa(pid)+"/soft_delete/", tok, nil); status != http.StatusNotFound {
		t.Fatalf("second soft delete: %d", status)
	}
}
