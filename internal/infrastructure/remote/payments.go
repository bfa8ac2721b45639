package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/core/ports"
	"github.com/smartretail/storefront/internal/infrastructure/apiclient"
)

type PaymentClient struct {
	base
}

func NewPaymentClient(api Doer, baseURL string, pub ports.RefreshPublisher) *PaymentClient {
	return &PaymentClient{base: newBase(api, baseURL, "payments", pub)}
}

// Initiate starts an online payment for an order.
func (c *PaymentClient) Initiate(ctx context.Context, in domain.PaymentInitiation) (*domain.PaymentSubmitted, error) {
	const path = "/payments/initiate"
	if err := c.check(http.MethodPost, path, in); err != nil {
		return nil, err
	}
	var res domain.PaymentSubmitted
	if err := c.send(ctx, http.MethodPost, path, nil, in, &res); err != nil {
		return nil, err
	}
	c.invalidate(domain.ResourcePayments, domain.ActionCreate, res.PaymentID)
	return &res, nil
}

// SubmitOffline sends an offline payment as multipart form data, with the
// optional attachment as a file part.
func (c *PaymentClient) SubmitOffline(ctx context.Context, in domain.OfflinePayment) (*domain.PaymentSubmitted, error) {
	const path = "/payments/offline"
	if err := c.check(http.MethodPost, path, in); err != nil {
		return nil, err
	}

	form := apiclient.NewForm().
		Set("order_id", strconv.Itoa(in.OrderID)).
		Set("method", in.Method).
		Set("reference", in.Reference).
		Set("amount", strconv.FormatFloat(in.Amount, 'f', -1, 64))
	if a := in.Attachment; a != nil && a.Content != nil {
		form.AddFile("attachment", a.Filename, a.ContentType, a.Content)
	}

	var res domain.PaymentSubmitted
	if err := c.send(ctx, http.MethodPost, path, nil, form, &res); err != nil {
		return nil, err
	}
	c.invalidate(domain.ResourcePayments, domain.ActionSubmit, res.PaymentID)
	return &res, nil
}

// Verify approves or rejects an offline payment. Approval moves the order to
// paid on the service side, so orders are invalidated as well.
func (c *PaymentClient) Verify(ctx context.Context, id int, approved bool) (*domain.PaymentVerified, error) {
	body := struct {
		Approved bool `json:"approved"`
	}{Approved: approved}

	var res domain.PaymentVerified
	if err := c.send(ctx, http.MethodPost, fmt.Sprintf("/payments/%d/verify", id), nil, body, &res); err != nil {
		return nil, err
	}
	c.invalidate(domain.ResourcePayments, domain.ActionVerify, id)
	if res.OrderStatus != "" {
		c.invalidate(domain.ResourceOrders, domain.ActionStatus, 0)
	}
	return &res, nil
}

// Mine lists payments for the caller's orders.
func (c *PaymentClient) Mine(ctx context.Context) (*domain.PaymentList, error) {
	var res domain.PaymentList
	if err := c.get(ctx, "/payments/mine", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// All lists every payment, optionally filtered; admins only.
func (c *PaymentClient) All(ctx context.Context, q domain.PaymentQuery) (*domain.PaymentList, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if q.Channel != "" {
		params.Set("channel", q.Channel)
	}
	var res domain.PaymentList
	if err := c.get(ctx, "/payments/", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *PaymentClient) Get(ctx context.Context, id int) (*domain.Payment, error) {
	var p domain.Payment
	if err := c.get(ctx, fmt.Sprintf("/payments/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *PaymentClient) ByOrder(ctx context.Context, orderID int) (*domain.PaymentList, error) {
	var res domain.PaymentList
	if err := c.get(ctx, fmt.Sprintf("/payments/by-order/%d", orderID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *PaymentClient) Stats(ctx context.Context) (*domain.PaymentStats, error) {
	var res domain.PaymentStats
	if err := c.get(ctx, "/payments/stats", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
