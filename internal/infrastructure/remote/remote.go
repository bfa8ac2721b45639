// Package remote holds one typed client per storefront service. Every client
// issues its calls through the shared API client and publishes an
// invalidation after each successful mutation.
package remote

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/core/ports"
	"github.com/smartretail/storefront/internal/infrastructure/apiclient"
	"github.com/smartretail/storefront/internal/validation"
)

// Doer is the subset of *apiclient.Client the service clients use.
type Doer interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
	Download(ctx context.Context, req apiclient.Request) ([]byte, string, error)
}

type base struct {
	api     Doer
	baseURL string
	service string
	pub     ports.RefreshPublisher
	now     func() time.Time
}

func newBase(api Doer, baseURL, service string, pub ports.RefreshPublisher) base {
	if pub == nil {
		pub = ports.NopPublisher{}
	}
	return base{
		api:     api,
		baseURL: strings.TrimRight(baseURL, "/"),
		service: service,
		pub:     pub,
		now:     time.Now,
	}
}

// endpoint joins the base URL with path and an optional query. An empty base
// URL yields a relative URL, which the API client rejects as invalid.
func (b base) endpoint(path string, q url.Values) string {
	u := b.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (b base) get(ctx context.Context, path string, q url.Values, out any) error {
	return b.api.Do(ctx, apiclient.Request{
		Service: b.service,
		Method:  http.MethodGet,
		URL:     b.endpoint(path, q),
	}, out)
}

func (b base) send(ctx context.Context, method, path string, q url.Values, body, out any) error {
	return b.api.Do(ctx, apiclient.Request{
		Service: b.service,
		Method:  method,
		URL:     b.endpoint(path, q),
		Body:    body,
	}, out)
}

func (b base) invalidate(res domain.Resource, action domain.Action, id int) {
	b.pub.Publish(domain.Invalidation{Resource: res, Action: action, ID: id, At: b.now()})
}

// check runs struct validation on an outbound payload and reports violations
// as an invalid request, before anything is sent.
func (b base) check(method, path string, payload any) error {
	if err := validation.Struct(payload); err != nil {
		return b.invalid(method, path, err)
	}
	return nil
}

func (b base) invalid(method, path string, err error) error {
	return &domain.RequestError{
		Kind:    domain.KindInvalid,
		Method:  method,
		URL:     b.endpoint(path, nil),
		Message: err.Error(),
		Err:     err,
	}
}
