package ports

import (
	"context"

	"github.com/smartretail/storefront/internal/core/domain"
)

// RefreshPublisher receives an invalidation after each successful mutation.
type RefreshPublisher interface {
	Publish(inv domain.Invalidation)
}

// RefreshHandler reacts to an invalidation, typically by re-fetching a list.
type RefreshHandler func(ctx context.Context, inv domain.Invalidation) error

// NopPublisher drops every invalidation.
type NopPublisher struct{}

func (NopPublisher) Publish(domain.Invalidation) {}
