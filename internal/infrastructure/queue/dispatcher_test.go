package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartretail/storefront/internal/core/domain"
)

func TestDispatcher_DeliversInOrderPerResource(t *testing.T) {
	d := NewDispatcher(3, zerolog.Nop())

	var mu sync.Mutex
	var got []int
	d.Subscribe(domain.ResourceOrders, func(_ context.Context, inv domain.Invalidation) error {
		mu.Lock()
		got = append(got, inv.ID)
		mu.Unlock()
		return nil
	})

	d.Start(context.Background())
	for i := 1; i <= 50; i++ {
		d.Publish(domain.Invalidation{Resource: domain.ResourceOrders, Action: domain.ActionStatus, ID: i})
	}
	d.Close()

	if len(got) != 50 {
		t.Fatalf("expected 50 deliveries, got %d", len(got))
	}
	for i, id := range got {
		if id != i+1 {
			t.Fatalf("out of order delivery at %d: %v", i, got)
		}
	}
}

func TestDispatcher_RoutesByResource(t *testing.T) {
	d := NewDispatcher(2, zerolog.Nop())

	var mu sync.Mutex
	counts := map[domain.Resource]int{}
	record := func(_ context.Context, inv domain.Invalidation) error {
		mu.Lock()
		counts[inv.Resource]++
		mu.Unlock()
		return nil
	}
	d.Subscribe(domain.ResourceProducts, record)
	d.Subscribe(domain.ResourcePayments, record)
	d.Subscribe(domain.ResourcePayments, record)

	d.Start(context.Background())
	d.Publish(domain.Invalidation{Resource: domain.ResourceProducts, Action: domain.ActionCreate})
	d.Publish(domain.Invalidation{Resource: domain.ResourcePayments, Action: domain.ActionVerify})
	d.Publish(domain.Invalidation{Resource: domain.ResourceUsers, Action: domain.ActionDelete})
	d.Close()

	if counts[domain.ResourceProducts] != 1 || counts[domain.ResourcePayments] != 2 || counts[domain.ResourceUsers] != 0 {
		t.Fatalf("unexpected deliveries %+v", counts)
	}
}

func TestDispatcher_HandlerErrorDoesNotStopWorker(t *testing.T) {
	d := NewDispatcher(1, zerolog.Nop())

	var calls int
	d.Subscribe(domain.ResourceUsers, func(context.Context, domain.Invalidation) error {
		calls++
		return errors.New("refetch failed")
	})

	d.Start(context.Background())
	d.Publish(domain.Invalidation{Resource: domain.ResourceUsers, Action: domain.ActionUpdate, ID: 1})
	d.Publish(domain.Invalidation{Resource: domain.ResourceUsers, Action: domain.ActionUpdate, ID: 2})
	d.Close()

	if calls != 2 {
		t.Fatalf("expected both invalidations handled, got %d", calls)
	}
}

func TestDispatcher_PublishAfterCloseIsDropped(t *testing.T) {
	d := NewDispatcher(1, zerolog.Nop())
	d.Start(context.Background())
	d.Close()
	d.Close()

	done := make(chan struct{})
	go func() {
		d.Publish(domain.Invalidation{Resource: domain.ResourceOrders})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Publish after Close blocked")
	}
}

func TestDispatcher_CloseAfterCancelWithFullQueue(t *testing.T) {
	d := NewDispatcher(1, zerolog.Nop())
	entered := make(chan struct{}, 1)
	d.Subscribe(domain.ResourceOrders, func(ctx context.Context, _ domain.Invalidation) error {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	published := make(chan struct{})
	go func() {
		defer close(published)
		for i := 0; i < channelBuffer+10; i++ {
			d.Publish(domain.Invalidation{Resource: domain.ResourceOrders, Action: domain.ActionCreate, ID: i})
		}
	}()

	<-entered
	cancel()

	select {
	case <-published:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish stayed blocked after the workers were cancelled")
	}

	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked after cancel")
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(4, zerolog.Nop())
	for _, r := range []domain.Resource{domain.ResourceOrders, domain.ResourceProducts, domain.ResourceAnalytics} {
		first := d.shardIndex(r)
		if first < 0 || first >= 4 {
			t.Fatalf("shard %d out of range", first)
		}
		if d.shardIndex(r) != first {
			t.Fatalf("shard for %s not stable", r)
		}
	}
}
