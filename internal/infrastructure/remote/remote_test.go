package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/infrastructure/apiclient"
)

// stubDoer records every request and answers with a canned JSON body.
type stubDoer struct {
	reqs     []apiclient.Request
	response string
	err      error
	download []byte
}

func (s *stubDoer) Do(_ context.Context, req apiclient.Request, out any) error {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return s.err
	}
	if out == nil || s.response == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.response), out)
}

func (s *stubDoer) Download(_ context.Context, req apiclient.Request) ([]byte, string, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, "", s.err
	}
	return s.download, "text/csv", nil
}

func (s *stubDoer) last(t *testing.T) apiclient.Request {
	t.Helper()
	if len(s.reqs) == 0 {
		t.Fatalf("no request was sent")
	}
	return s.reqs[len(s.reqs)-1]
}

type recordingPublisher struct {
	mu   sync.Mutex
	invs []domain.Invalidation
}

func (p *recordingPublisher) Publish(inv domain.Invalidation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invs = append(p.invs, inv)
}

func TestAuthClient_LoginSkipsStoredToken(t *testing.T) {
	doer := &stubDoer{response: `{"access_token":"jwt","user":{"id":1,"email":"a@x.io","role":"customer"}}`}
	c := NewAuthClient(doer, "http://auth:5001/", nil)

	res, err := c.Login(context.Background(), domain.Credentials{Email: "a@x.io", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	req := doer.last(t)
	if !req.SkipAuth || req.Method != http.MethodPost || req.URL != "http://auth:5001/auth/login" {
		t.Fatalf("unexpected request %+v", req)
	}
	if res.AccessToken != "jwt" || res.User.ID != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestAuthClient_MeUsesGivenToken(t *testing.T) {
	doer := &stubDoer{response: `{"id":4,"email":"b@x.io","role":"admin"}`}
	c := NewAuthClient(doer, "http://auth", nil)

	u, err := c.Me(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if doer.last(t).Token != "tok" || !u.IsAdmin() {
		t.Fatalf("unexpected request/user %+v %+v", doer.last(t), u)
	}
}

func TestAuthClient_UpdateRoleValidatesBeforeSending(t *testing.T) {
	doer := &stubDoer{}
	pub := &recordingPublisher{}
	c := NewAuthClient(doer, "http://auth", pub)

	_, err := c.UpdateRole(context.Background(), 3, "owner")
	if !domain.IsKind(err, domain.KindInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
	if len(doer.reqs) != 0 || len(pub.invs) != 0 {
		t.Fatalf("nothing should be sent or published on invalid payload")
	}

	doer.response = `{"message":"User b@x.io role updated to admin"}`
	if _, err := c.UpdateRole(context.Background(), 3, domain.RoleAdmin); err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if got := doer.last(t); got.Method != http.MethodPut || got.URL != "http://auth/auth/users/3/role" {
		t.Fatalf("unexpected request %+v", got)
	}
	if len(pub.invs) != 1 || pub.invs[0].Resource != domain.ResourceUsers || pub.invs[0].ID != 3 {
		t.Fatalf("unexpected invalidations %+v", pub.invs)
	}
}

func TestProductClient_ListFilters(t *testing.T) {
	doer := &stubDoer{response: `[{"id":1,"name":"Mug","price":5,"stock":0},{"id":2,"name":"Pen","price":1,"stock":4},{"id":3,"name":"Cup","price":2,"stock":40}]`}
	c := NewProductClient(doer, "http://products", nil)

	minPrice := 1.5
	products, err := c.List(context.Background(), domain.ProductFilter{Name: "mug", MinPrice: &minPrice})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	u, err := url.Parse(doer.last(t).URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if u.Path != "/products/" || u.Query().Get("name") != "mug" || u.Query().Get("min_price") != "1.5" || u.Query().Has("max_price") {
		t.Fatalf("unexpected url %s", u)
	}

	want := []domain.StockLevel{domain.StockOut, domain.StockLow, domain.StockNormal}
	for i, p := range products {
		if p.StockLevel() != want[i] {
			t.Fatalf("product %d: expected %s, got %s", p.ID, want[i], p.StockLevel())
		}
	}
	if products[0].Stock != 0 || products[0].CanAddToCart() {
		t.Fatalf("zero stock must pass through and block add-to-cart")
	}
}

func TestProductClient_CreatePublishesInvalidation(t *testing.T) {
	doer := &stubDoer{response: `{"message":"Product created","id":12}`}
	pub := &recordingPublisher{}
	c := NewProductClient(doer, "http://products", pub)

	res, err := c.Create(context.Background(), domain.ProductInput{Name: "Lamp", Price: 20, Stock: 3})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.ID != 12 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(pub.invs) != 1 || pub.invs[0].Action != domain.ActionCreate || pub.invs[0].ID != 12 {
		t.Fatalf("unexpected invalidations %+v", pub.invs)
	}
}

func TestProductClient_FailedMutationPublishesNothing(t *testing.T) {
	doer := &stubDoer{err: &domain.RequestError{Kind: domain.KindStatus, Status: 403, Message: "Admins only"}}
	pub := &recordingPublisher{}
	c := NewProductClient(doer, "http://products", pub)

	if _, err := c.Delete(context.Background(), 4); err == nil || err.Error() != "Admins only" {
		t.Fatalf("expected service error, got %v", err)
	}
	if len(pub.invs) != 0 {
		t.Fatalf("expected no invalidation, got %+v", pub.invs)
	}
}

func TestProductClient_BulkCreateRejectsEmpty(t *testing.T) {
	c := NewProductClient(&stubDoer{}, "http://products", nil)
	if _, err := c.BulkCreate(context.Background(), nil); !domain.IsKind(err, domain.KindInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestOrderClient_PlaceValidatesItems(t *testing.T) {
	doer := &stubDoer{}
	c := NewOrderClient(doer, "http://orders", nil)

	if _, err := c.Place(context.Background(), nil); !domain.IsKind(err, domain.KindInvalid) {
		t.Fatalf("expected invalid error for empty order, got %v", err)
	}
	if _, err := c.Place(context.Background(), []domain.LineItem{{ProductID: 7, Quantity: 0}}); !domain.IsKind(err, domain.KindInvalid) {
		t.Fatalf("expected invalid error for zero quantity, got %v", err)
	}
	if len(doer.reqs) != 0 {
		t.Fatalf("invalid orders must not be sent")
	}
}

func TestOrderClient_PlaceSendsItems(t *testing.T) {
	doer := &stubDoer{response: `{"order_id":501,"status":"pending","items":[{"product_id":7,"quantity":2,"price":3}]}`}
	pub := &recordingPublisher{}
	c := NewOrderClient(doer, "http://orders", pub)

	o, err := c.Place(context.Background(), []domain.LineItem{{ProductID: 7, Quantity: 2}})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	body, ok := doer.last(t).Body.(domain.PlaceOrder)
	if !ok || len(body.Items) != 1 || body.Items[0].ProductID != 7 {
		t.Fatalf("unexpected body %+v", doer.last(t).Body)
	}
	if o.ID != 501 || o.Status != domain.OrderPending {
		t.Fatalf("unexpected order %+v", o)
	}
	if len(pub.invs) != 2 || pub.invs[0].Resource != domain.ResourceOrders || pub.invs[1].Resource != domain.ResourceProducts {
		t.Fatalf("unexpected invalidations %+v", pub.invs)
	}
}

func TestOrderClient_UpdateStatusRejectsUnknown(t *testing.T) {
	c := NewOrderClient(&stubDoer{}, "http://orders", nil)
	if _, err := c.UpdateStatus(context.Background(), 1, "lost"); !domain.IsKind(err, domain.KindInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestPaymentClient_SubmitOfflineBuildsForm(t *testing.T) {
	doer := &stubDoer{response: `{"payment_id":9,"payment_ref":"OFF_ab","status":"awaiting_verification"}`}
	c := NewPaymentClient(doer, "http://payments", nil)

	res, err := c.SubmitOffline(context.Background(), domain.OfflinePayment{
		OrderID:   5,
		Method:    domain.MethodBankTransfer,
		Reference: "TX-1",
		Amount:    12.5,
		Attachment: &domain.Attachment{
			Filename: "slip.png",
			Content:  strings.NewReader("png"),
		},
	})
	if err != nil {
		t.Fatalf("SubmitOffline: %v", err)
	}
	form, ok := doer.last(t).Body.(*apiclient.Form)
	if !ok {
		t.Fatalf("expected multipart form body, got %T", doer.last(t).Body)
	}
	got := strings.Join(form.Fields(), ",")
	if got != "order_id,method,reference,amount,attachment" {
		t.Fatalf("unexpected form fields %q", got)
	}
	if res.PaymentID != 9 || res.PaymentRef != "OFF_ab" || res.Status != domain.PaymentAwaitingVerification {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestPaymentClient_AllQuery(t *testing.T) {
	doer := &stubDoer{response: `{"page":2,"total":0,"payments":[]}`}
	c := NewPaymentClient(doer, "http://payments", nil)

	if _, err := c.All(context.Background(), domain.PaymentQuery{Page: 2, Status: "success"}); err != nil {
		t.Fatalf("All: %v", err)
	}
	if got := doer.last(t).URL; got != "http://payments/payments/?page=2&status=success" {
		t.Fatalf("unexpected url %s", got)
	}
}

func TestAnalyticsClient_CSVURL(t *testing.T) {
	c := NewAnalyticsClient(&stubDoer{}, "http://analytics", nil)
	got := c.SalesReportCSVURL(domain.GroupWeek, "2024-01-01", "2024-01-31")
	want := "http://analytics/analytics/reports/sales.csv?from=2024-01-01&group=week&to=2024-01-31"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestAnalyticsClient_DefaultsAndValidation(t *testing.T) {
	doer := &stubDoer{response: `{"window_days":30,"metric":"revenue","top":[]}`}
	c := NewAnalyticsClient(doer, "http://analytics", nil)

	if _, err := c.TopProducts(context.Background(), 0, 0, ""); err != nil {
		t.Fatalf("TopProducts: %v", err)
	}
	if got := doer.last(t).URL; got != "http://analytics/analytics/top-products?limit=10&metric=revenue&window=30" {
		t.Fatalf("unexpected url %s", got)
	}
	if _, err := c.TopProducts(context.Background(), 7, 5, "margin"); !domain.IsKind(err, domain.KindInvalid) {
		t.Fatalf("expected invalid metric error, got %v", err)
	}
	if _, err := c.SalesReport(context.Background(), "year", "", ""); !domain.IsKind(err, domain.KindInvalid) {
		t.Fatalf("expected invalid group error, got %v", err)
	}
}

func TestAnalyticsClient_DownloadCSV(t *testing.T) {
	doer := &stubDoer{download: []byte("period,orders,items,revenue\n")}
	c := NewAnalyticsClient(doer, "http://analytics", nil)

	data, err := c.DownloadSalesReportCSV(context.Background(), "", "", "")
	if err != nil {
		t.Fatalf("DownloadSalesReportCSV: %v", err)
	}
	if !strings.HasPrefix(string(data), "period,") {
		t.Fatalf("unexpected data %q", data)
	}
	if got := doer.last(t).URL; got != "http://analytics/analytics/reports/sales.csv?group=day" {
		t.Fatalf("unexpected url %s", got)
	}
}

func TestEmptyBaseURLProducesRelativeURL(t *testing.T) {
	doer := &stubDoer{}
	c := NewOrderClient(doer, "", nil)
	_, _ = c.Mine(context.Background())
	if got := doer.last(t).URL; got != "/orders/" {
		t.Fatalf("expected relative url, got %q", got)
	}
}
