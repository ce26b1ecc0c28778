package facade

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"gestion-admin/client"
	"gestion-admin/models"
	"gestion-admin/notify"
	"gestion-admin/session"
)

type fakeBackend struct {
	t      *testing.T
	mu     sync.Mutex
	hits   []string
	bodies map[string][]byte
	routes map[string]http.HandlerFunc
	srv    *httptest.Server
}

func newFake(t *testing.T) *fakeBackend {
	t.Helper()
	f := &fakeBackend{t: t, bodies: map[string][]byte{}, routes: map[string]http.HandlerFunc{}}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.hits = append(f.hits, key)
		f.bodies[key] = body
		h := f.routes[key]
		f.mu.Unlock()
		if h == nil {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Not found."}`))
			return
		}
		h(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeBackend) on(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	f.routes[method+" "+path] = h
	f.mu.Unlock()
}

func (f *fakeBackend) reply(method, path string, status int, body string) {
	f.on(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func (f *fakeBackend) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.hits...)
}

func (f *fakeBackend) body(key string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

func newApp(t *testing.T, f *fakeBackend, role string) *App {
	t.Helper()
	sess := session.New(nil, f.srv.URL, f.srv.Client())
	if err := sess.Begin(models.LoginResponse{
		Access: "token", Refresh: "refresh",
		User: models.AuthUser{ID: 1, Username: "u", Role: role},
	}); err != nil {
		t.Fatal(err)
	}
	api := client.New(f.srv.URL, sess, f.srv.Client())
	return New(api, notify.New(time.Minute))
}

func TestListForbiddenIsEmptyAndSilent(t *testing.T) {
	f := newFake(t)
	f.reply(http.MethodGet, "/api/expenses/", http.StatusForbidden, `{"detail":"Vous n'avez pas la permission."}`)
	app := newApp(t, f, models.RoleSales)

	items, err := app.Expenses.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("items = %v", items)
	}
	if n, ok := app.Notifier().Current(); ok {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestAddErrorMessageFromFieldErrors(t *testing.T) {
	f := newFake(t)
	f.reply(http.MethodPost, "/api/expenses/", http.StatusBadRequest, `{"amount":["Must be positive"]}`)
	app := newApp(t, f, models.RoleAdmin)

	_, err := app.Expenses.Add(context.Background(), models.Expense{Title: "Papier", Category: "FOURNITURE", Amount: 10})
	if err == nil || err.Error() != "Must be positive" {
		t.Fatalf("err = %v", err)
	}
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("err type = %T", err)
	}
	n, ok := app.Notifier().Current()
	if !ok || n.Kind != notify.Error || n.Message != "Must be positive" {
		t.Fatalf("notification = %+v", n)
	}
	if len(app.Expenses.Items()) != 0 {
		t.Fatal("failed write must not touch the cache")
	}
}

func TestAddExpensePrependsAndNotifies(t *testing.T) {
	f := newFake(t)
	f.reply(http.MethodGet, "/api/expenses/", http.StatusOK,
		`{"count":1,"results":[{"id":1,"title":"Loyer","category":"LOYER","amount":"200000.00"}]}`)
	f.reply(http.MethodPost, "/api/expenses/", http.StatusCreated,
		`{"id":2,"title":"Cartouches","category":"FOURNITURE","amount":"1500.50"}`)
	app := newApp(t, f, models.RoleAdmin)
	ctx := context.Background()

	if _, err := app.Expenses.List(ctx); err != nil {
		t.Fatal(err)
	}
	created, err := app.Expenses.Add(ctx, models.Expense{Title: "  Cartouches ", Category: "FOURNITURE", Amount: 1500.5})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if created.ID != 2 || created.Amount != 1500.5 {
		t.Fatalf("created = %+v", created)
	}

	var sent map[string]any
	if err := json.Unmarshal(f.body("POST /api/expenses/"), &sent); err != nil {
		t.Fatal(err)
	}
	if sent["amount"] != 1500.5 || sent["category"] != "FOURNITURE" || sent["title"] != "Cartouches" {
		t.Fatalf("sent = %v", sent)
	}

	items := app.Expenses.Items()
	if len(items) != 2 || items[0].ID != 2 || items[1].ID != 1 {
		t.Fatalf("items = %+v", items)
	}
	n, ok := app.Notifier().Current()
	if !ok || n.Kind != notify.Success || n.Message != "Dépense créée avec succès" {
		t.Fatalf("notification = %+v", n)
	}
}

func TestValidationFailureSendsNothing(t *testing.T) {
	f := newFake(t)
	app := newApp(t, f, models.RoleAdmin)

	_, err := app.Expenses.Add(context.Background(), models.Expense{Title: "X", Category: "FOURNITURE", Amount: 0})
	var v models.Violations
	if !errors.As(err, &v) || v["amount"] == "" {
		t.Fatalf("err = %v", err)
	}
	if len(f.calls()) != 0 {
		t.Fatalf("calls = %v", f.calls())
	}
}

func TestQuotesSwallowNetworkFailure(t *testing.T) {
	f := newFake(t)
	app := newApp(t, f, models.RoleAdmin)
	f.srv.Close()

	items, err := app.Quotes.List(context.Background())
	if err != nil || len(items) != 0 {
		t.Fatalf("List = %v, %v", items, err)
	}
	if _, ok := app.Notifier().Current(); ok {
		t.Fatal("network failure on quotes must stay silent")
	}

	if _, err := app.Clients.List(context.Background()); err == nil {
		t.Fatal("clients should surface the network failure")
	}
	if n, ok := app.Notifier().Current(); !ok || n.Kind != notify.Error {
		t.Fatalf("notification = %+v", n)
	}
}

func TestCancelledAddLeavesCacheUntouched(t *testing.T) {
	f := newFake(t)
	f.on(http.MethodPost, "/api/auth/clients/", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":9,"name":"Late"}`))
	})
	app := newApp(t, f, models.RoleAdmin)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)
	_, err := app.Clients.Add(ctx, models.Client{Name: "Late"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if len(app.Clients.Items()) != 0 {
		t.Fatal("cancelled add changed the cache")
	}
	if _, ok := app.Notifier().Current(); ok {
		t.Fatal("cancelled add notified")
	}
}

func TestDeleteStrategies(t *testing.T) {
	f := newFake(t)
	f.reply(http.MethodDelete, "/api/auth/clients/3/", http.StatusNoContent, ``)
	f.reply(http.MethodPost, "/api/expenses/4/soft_delete/", http.StatusOK, `{"detail":"ok"}`)
	app := newApp(t, f, models.RoleAdmin)
	app.Clients.Collection().Replace([]models.Client{{ID: 3, Name: "A"}, {ID: 5, Name: "B"}})
	app.Expenses.Collection().Replace([]models.Expense{{ID: 4, Title: "T"}})

	ctx := context.Background()
	if err := app.Clients.Delete(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if err := app.Expenses.Delete(ctx, 4); err != nil {
		t.Fatal(err)
	}
	if got := app.Clients.Items(); len(got) != 1 || got[0].ID != 5 {
		t.Fatalf("clients = %+v", got)
	}
	if len(app.Expenses.Items()) != 0 {
		t.Fatal("expense not removed")
	}
	want := []string{"DELETE /api/auth/clients/3/", "POST /api/expenses/4/soft_delete/"}
	if got := f.calls(); len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("calls = %v", got)
	}
}

func TestUpdateMethods(t *testing.T) {
	f := newFake(t)
	f.reply(http.MethodPut, "/api/auth/clients/3/", http.StatusOK, `{"id":3,"name":"Nouveau"}`)
	f.reply(http.MethodPatch, "/api/quotes/8/", http.StatusOK, `{"id":8,"client_name":"C","status":"ENVOYE"}`)
	app := newApp(t, f, models.RoleAdmin)
	app.Clients.Collection().Replace([]models.Client{{ID: 3, Name: "Ancien"}})

	ctx := context.Background()
	if _, err := app.Clients.Update(ctx, 3, models.Client{Name: "Nouveau"}); err != nil {
		t.Fatal(err)
	}
	if _, err := app.Quotes.Update(ctx, 8, map[string]any{"status": "ENVOYE"}); err != nil {
		t.Fatal(err)
	}
	if c, _ := app.Clients.Find(3); c.Name != "Nouveau" {
		t.Fatalf("client = %+v", c)
	}
}

func TestProductPatchSendsSetFieldsOnly(t *testing.T) {
	f := newFake(t)
	f.reply(http.MethodPatch, "/api/products/4/", http.StatusOK, `{"id":4,"name":"Batterie","quantity":9}`)
	f.reply(http.MethodGet, "/api/products/", http.StatusOK, `[{"id":4,"name":"Batterie","quantity":9}]`)
	app := newApp(t, f, models.RoleAdmin)

	qty := 9
	name := "  Batterie "
	if _, err := app.Products.Update(context.Background(), 4, models.ProductPatch{Name: &name, Quantity: &qty}); err != nil {
		t.Fatal(err)
	}
	var sent map[string]any
	if err := json.Unmarshal(f.body("PATCH /api/products/4/"), &sent); err != nil {
		t.Fatal(err)
	}
	if len(sent) != 2 || sent["name"] != "Batterie" || sent["quantity"] != float64(9) {
		t.Fatalf("patch body = %v", sent)
	}
}

func TestProductDeleteNotFoundRelists(t *testing.T) {
	f := newFake(t)
	f.reply(http.MethodPost, "/api/products/5/soft_delete/", http.StatusNotFound, `{"detail":"Not found."}`)
	f.reply(http.MethodGet, "/api/products/", http.StatusOK,
		`[{"id":6,"name":"Câble","quantity":10,"alert_threshold":2,"photo":"/media/products/cable.jpg"}]`)
	app := newApp(t, f, models.RoleAdmin)

	err := app.Products.Delete(context.Background(), 5)
	if err == nil || err.Error() != msgProductGone {
		t.Fatalf("err = %v", err)
	}
	items := app.Products.Items()
	if len(items) != 1 || items[0].ID != 6 {
		t.Fatalf("products = %+v", items)
	}
	if items[0].PhotoURL != f.srv.URL+"/media/products/cable.jpg" {
		t.Fatalf("photo url = %q", items[0].PhotoURL)
	}
	if n, _ := app.Notifier().Current(); n.Message != msgProductGone {
		t.Fatalf("notification = %+v", n)
	}
}

func TestProductListWarnsLowStock(t *testing.T) {
	f := newFake(t)
	f.reply(http.MethodGet, "/api/products/", http.StatusOK,
		`[{"id":1,"name":"A","quantity":1,"alert_threshold":5},{"id":2,"name":"B","quantity":9,"alert_threshold":5},{"id":3,"name":"C","quantity":5,"alert_threshold":5}]`)
	app := newApp(t, f, models.RoleAdmin)

	if _, err := app.Products.List(context.Background()); err != nil {
		t.Fatal(err)
	}
	n, ok := app.Notifier().Current()
	if !ok || n.Kind != notify.Warning || n.Message != "2 produit(s) en rupture de stock ou seuil d'alerte atteint." {
		t.Fatalf("notification = %+v", n)
	}
	if len(app.Products.LowStock()) != 2 {
		t.Fatal("LowStock mismatch")
	}
}

func TestStockMovementAppendsAndRelistsProducts(t *testing.T) {
	f := newFake(t)
	f.reply(http.MethodGet, "/api/products/", http.StatusOK, `[{"id":4,"name":"Routeur","quantity":12,"alert_threshold":1}]`)
	f.reply(http.MethodPost, "/api/stock-movements/", http.StatusCreated,
		`{"id":11,"product":4,"movement_type":"ENTREE","quantity":2}`)
	app := newApp(t, f, models.RoleAdmin)
	ctx := context.Background()
	if _, err := app.Products.List(ctx); err != nil {
		t.Fatal(err)
	}
	app.StockMovements.res.Collection().Replace([]models.StockMovement{{ID: 10, Product: 4}})

	m, err := app.StockMovements.Add(ctx, models.StockMovement{Product: 4, MovementType: models.MovementIn, Quantity: 2})
	if err != nil {
		t.Fatal(err)
	}
	if m.ProductName != "Routeur" {
		t.Fatalf("product name = %q", m.ProductName)
	}
	items := app.StockMovements.Items()
	if len(items) != 2 || items[1].ID != 11 {
		t.Fatalf("movements = %+v", items)
	}
	gets := 0
	for _, c := range f.calls() {
		if c == "GET /api/products/" {
			gets++
		}
	}
	if gets != 2 {
		t.Fatalf("product lists = %d, want 2", gets)
	}
}

func TestInvoiceListMapsItems(t *testing.T) {
	f := newFake(t)
	f.reply(http.MethodGet, "/api/invoices/", http.StatusOK,
		`[{"id":3,"client_name":"Dupont","total_ttc":"5000.00","invoice_items":[{"id":1,"product":2,"quantity":1,"unit_price":"5000.00","product_detail":{"id":2,"name":"Switch"}}]}]`)
	app := newApp(t, f, models.RoleSales)

	items, err := app.Invoices.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || len(items[0].Items) != 1 || items[0].Items[0].ProductName != "Switch" {
		t.Fatalf("invoices = %+v", items)
	}
	if items[0].InvoiceNumber != "FACTURE-3" {
		t.Fatalf("number = %q", items[0].InvoiceNumber)
	}
}

func TestInvoiceDeleteItemSendsBody(t *testing.T) {
	f := newFake(t)
	f.reply(http.MethodDelete, "/api/invoices/3/items/", http.StatusNoContent, ``)
	f.reply(http.MethodGet, "/api/invoices/", http.StatusOK, `[]`)
	f.reply(http.MethodGet, "/api/products/", http.StatusOK, `[]`)
	app := newApp(t, f, models.RoleAdmin)

	if err := app.Invoices.DeleteItem(context.Background(), 3, 17); err != nil {
		t.Fatal(err)
	}
	if got := string(f.body("DELETE /api/invoices/3/items/")); got != `{"item_id":17}` {
		t.Fatalf("body = %s", got)
	}
}

func TestQuoteConvertToInvoice(t *testing.T) {
	f := newFake(t)
	f.reply(http.MethodPost, "/api/quotes/8/convert_to_invoice/", http.StatusOK,
		`{"message":"Devis converti","invoice":{"id":21,"client_name":"C"}}`)
	f.reply(http.MethodGet, "/api/quotes/", http.StatusOK, `[]`)
	f.reply(http.MethodGet, "/api/invoices/", http.StatusOK, `[{"id":21,"client_name":"C"}]`)
	app := newApp(t, f, models.RoleAdmin)

	conv, err := app.Quotes.ConvertToInvoice(context.Background(), 8)
	if err != nil {
		t.Fatal(err)
	}
	if conv.Invoice.ID != 21 {
		t.Fatalf("conversion = %+v", conv)
	}
	if len(app.Invoices.Items()) != 1 {
		t.Fatal("invoices not reloaded")
	}
}

func TestUsersSendAdditionalPagesOnly(t *testing.T) {
	f := newFake(t)
	f.reply(http.MethodPost, "/api/auth/users/", http.StatusCreated, `{"id":5,"username":"tech","email":"t@x.fr","role":"technicien"}`)
	app := newApp(t, f, models.RoleAdmin)

	_, err := app.Users.Add(context.Background(), models.User{
		Username: "tech", Email: "t@x.fr", Password: "motdepasse1", RoleWrite: models.RoleTechnician,
		PagePermissions: []string{"/", "/interventions", "/stock"},
	})
	if err != nil {
		t.Fatal(err)
	}
	var sent struct {
		PagePermissions []string `json:"page_permissions"`
		RoleWrite       string   `json:"role_write"`
	}
	if err := json.Unmarshal(f.body("POST /api/auth/users/"), &sent); err != nil {
		t.Fatal(err)
	}
	if len(sent.PagePermissions) != 1 || sent.PagePermissions[0] != "/stock" || sent.RoleWrite != models.RoleTechnician {
		t.Fatalf("sent = %+v", sent)
	}
}

func TestInstallationAddFillsAmounts(t *testing.T) {
	f := newFake(t)
	f.reply(http.MethodPost, "/api/installations/", http.StatusCreated, `{"id":1,"client_name":"Ba"}`)
	app := newApp(t, f, models.RoleAdmin)

	_, err := app.Installations.Add(context.Background(), models.Installation{
		ClientName:    "Ba",
		PaymentMethod: "3_TRANCHES",
		Products:      []models.InstallationProduct{{Product: 1, Quantity: 2, UnitPrice: 500}},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	var sent models.Installation
	if err := json.Unmarshal(f.body("POST /api/installations/"), &sent); err != nil {
		t.Fatal(err)
	}
	if sent.TotalAmount != 1000 || sent.AdvanceAmount != 500 || sent.RemainingAmount != 500 || sent.Status != models.InstallationPlanned {
		t.Fatalf("sent = %+v", sent)
	}
}

func TestDashboardForbiddenIsZeroed(t *testing.T) {
	f := newFake(t)
	f.reply(http.MethodGet, "/api/dashboard/stats/", http.StatusForbidden, `{}`)
	app := newApp(t, f, models.RoleSales)

	stats, err := app.Dashboard.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalProducts != 0 || stats.RecentInvoices == nil {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestLoadAllByRole(t *testing.T) {
	f := newFake(t)
	for _, p := range []string{"/api/invoices/", "/api/quotes/", "/api/auth/clients/"} {
		f.reply(http.MethodGet, p, http.StatusOK, `[]`)
	}
	app := newApp(t, f, models.RoleTechnician)

	if err := app.LoadAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := f.calls()
	sort.Strings(got)
	want := []string{"GET /api/auth/clients/", "GET /api/invoices/", "GET /api/quotes/"}
	if len(got) != len(want) {
		t.Fatalf("calls = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("calls = %v", got)
		}
	}
	if app.Loading() {
		t.Fatal("loading flag still set")
	}
}

func TestLoginAndLogout(t *testing.T) {
	f := newFake(t)
	f.reply(http.MethodPost, "/api/auth/login/", http.StatusOK,
		`{"access":"a1","refresh":"r1","user":{"id":4,"username":"awa","email":"a@x.fr","profile":{"role":"commercial"}}}`)
	f.reply(http.MethodPost, "/api/auth/logout/", http.StatusOK, `{}`)

	sess := session.New(nil, f.srv.URL, f.srv.Client())
	app := New(client.New(f.srv.URL, sess, f.srv.Client()), notify.New(time.Minute))
	ctx := context.Background()

	u, err := app.Login(ctx, "awa", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != models.RoleSales || !sess.LoggedIn() || sess.Token() != "a1" {
		t.Fatalf("user = %+v", u)
	}

	app.Clients.Collection().Replace([]models.Client{{ID: 1, Name: "A"}})
	app.Logout(ctx)
	if sess.LoggedIn() || len(app.Clients.Items()) != 0 {
		t.Fatal("logout left state behind")
	}
	if got := string(f.body("POST /api/auth/logout/")); got != `{"refresh":"r1"}` {
		t.Fatalf("logout body = %s", got)
	}
}

func TestLoginRejected(t *testing.T) {
	f := newFake(t)
	f.reply(http.MethodPost, "/api/auth/login/", http.StatusUnauthorized, `{"error":"Identifiants invalides"}`)
	sess := session.New(nil, f.srv.URL, f.srv.Client())
	app := New(client.New(f.srv.URL, sess, f.srv.Client()), notify.New(time.Minute))

	_, err := app.Login(context.Background(), "x", "y")
	if err == nil || err.Error() != "Identifiants invalides" {
		t.Fatalf("err = %v", err)
	}
	for _, c := range f.calls() {
		if c == "POST "+session.RefreshPath {
			t.Fatal("login 401 must not trigger a refresh")
		}
	}
}
