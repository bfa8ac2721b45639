package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/smartretail/storefront/internal/api"
	"github.com/smartretail/storefront/internal/app"
	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/infrastructure/config"
	"github.com/smartretail/storefront/internal/infrastructure/tokenstore"
	"github.com/smartretail/storefront/internal/sandbox"
)

type harness struct {
	cfg    *config.Config
	tokens *tokenstore.MemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := sandbox.NewStore()
	auth := sandbox.NewAuthenticator(store, "cli-secret", time.Hour)
	if _, err := auth.SeedAdmin("admin@example.com", "admin-pw"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	reg := prometheus.NewRegistry()
	srv := httptest.NewServer(api.NewRouter(store, auth, api.Options{
		JWTSecret:  "cli-secret",
		Logger:     zerolog.Nop(),
		Registerer: reg,
		Gatherer:   reg,
	}))
	t.Cleanup(srv.Close)

	cfg, err := config.LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"AUTH_BASE":      srv.URL,
		"PRODUCT_BASE":   srv.URL,
		"ORDER_BASE":     srv.URL,
		"PAYMENT_BASE":   srv.URL,
		"ANALYTICS_BASE": srv.URL,
		"TOKEN_STORE":    "memory",
		"LOG_LEVEL":      "error",
		"REPORT_DIR":     t.TempDir(),
	}))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return &harness{cfg: cfg, tokens: tokenstore.NewMemoryStore()}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Run(context.Background(), args,
		WithConfig(h.cfg),
		WithAppOptions(app.WithTokenStore(h.tokens)),
		WithOutput(&out),
	)
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	if err != nil {
		t.Fatalf("storefront %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestCLI_LoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "login", "--email", "admin@example.com", "--password", "admin-pw")
	if !strings.Contains(out, `"email": "admin@example.com"`) {
		t.Fatalf("unexpected login output: %s", out)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(h.mustRun(t, "whoami")), &session); err != nil {
		t.Fatalf("decode whoami: %v", err)
	}
	if session.State != domain.StateAuthenticated || session.User == nil || session.User.Role != domain.RoleAdmin {
		t.Fatalf("expected restored admin session, got %+v", session)
	}

	h.mustRun(t, "logout")
	if err := json.Unmarshal([]byte(h.mustRun(t, "whoami")), &session); err != nil {
		t.Fatalf("decode whoami: %v", err)
	}
	if session.State != domain.StateUnauthenticated {
		t.Fatalf("expected unauthenticated after logout, got %+v", session)
	}
}

func TestCLI_LoginFailureReturnsServerMessage(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "login", "--email", "admin@example.com", "--password", "nope")
	if err == nil || !strings.Contains(err.Error(), "Invalid email or password") {
		t.Fatalf("expected server message, got %v", err)
	}
}

func TestCLI_MineRequiresSession(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "orders", "mine")
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestCLI_CatalogOrderFlow(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "--email", "admin@example.com", "--password", "admin-pw")

	h.mustRun(t, "products", "create", "--name", "Tea", "--price", "3.5", "--stock", "5")
	h.mustRun(t, "orders", "place", "--item", "1:5")

	var view map[string]any
	if err := json.Unmarshal([]byte(h.mustRun(t, "products", "get", "1")), &view); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if view["stock"] != float64(0) || view["stock_level"] != string(domain.StockOut) || view["can_add_to_cart"] != false {
		t.Fatalf("unexpected product view: %v", view)
	}

	h.mustRun(t, "products", "update", "1", "--price", "4")
	if err := json.Unmarshal([]byte(h.mustRun(t, "products", "get", "1")), &view); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if view["name"] != "Tea" || view["price"] != float64(4) {
		t.Fatalf("update should keep unset fields: %v", view)
	}

	var orders []domain.Order
	if err := json.Unmarshal([]byte(h.mustRun(t, "orders", "mine")), &orders); err != nil {
		t.Fatalf("decode orders: %v", err)
	}
	if len(orders) != 1 || orders[0].Items[0].Quantity != 5 {
		t.Fatalf("unexpected orders: %+v", orders)
	}
}

func TestCLI_AnalyticsExportAndURL(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "--email", "admin@example.com", "--password", "admin-pw")

	out := h.mustRun(t, "analytics", "csv", "--url", "--group", "week", "--from", "2024-01-01")
	if !strings.HasPrefix(out, h.cfg.Services.AnalyticsBase+"/analytics/reports/sales.csv?") || !strings.Contains(out, "group=week") {
		t.Fatalf("unexpected csv url: %s", out)
	}

	h.mustRun(t, "analytics", "export", "--group", "week", "--from", "2024-01-01", "--to", "2024-01-31")
	path := filepath.Join(h.cfg.Reports.Dir, "reports", "sales_week_2024-01-01_2024-01-31.csv")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read archived report: %v", err)
	}
	if !strings.HasPrefix(string(data), "period,orders,items,revenue") {
		t.Fatalf("unexpected archived csv: %q", data)
	}
}

func TestRuntime_CloseReleasesApp(t *testing.T) {
	h := newHarness(t)

	rt := &runtime{}
	rt.close()

	a, err := app.New(context.Background(), h.cfg, zerolog.Nop(), app.WithTokenStore(h.tokens))
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	rt.app = a
	rt.close()
	if rt.app != nil {
		t.Fatal("expected close to drop the app")
	}
	// A second close is a no-op.
	rt.close()
}

func TestParseItems(t *testing.T) {
	lines, err := parseItems([]string{"3:2", "7"})
	if err != nil {
		t.Fatalf("parseItems: %v", err)
	}
	if len(lines) != 2 || lines[0] != (domain.LineItem{ProductID: 3, Quantity: 2}) || lines[1].Quantity != 1 {
		t.Fatalf("unexpected lines: %+v", lines)
	}
	if _, err := parseItems([]string{"x:1"}); err == nil {
		t.Fatal("expected error for non-numeric product id")
	}
}

type fakeServer struct {
	started  chan struct{}
	shutdown chan struct{}
}

func (f *fakeServer) Start(string) error {
	close(f.started)
	<-f.shutdown
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	close(f.shutdown)
	return nil
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	srv := &fakeServer{started: make(chan struct{}), shutdown: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, ":0", zerolog.Nop()) }()

	<-srv.started
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
