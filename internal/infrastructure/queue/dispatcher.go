package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/core/ports"
	"github.com/smartretail/storefront/internal/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher fans invalidations out to subscribed refresh handlers. Events are
// sharded by resource onto a fixed set of workers, so handlers for one
// resource see its invalidations in publish order.
type Dispatcher struct {
	workers []chan domain.Invalidation
	log     zerolog.Logger

	handlersMu sync.RWMutex
	handlers   map[domain.Resource][]ports.RefreshHandler

	// sendMu guards closed against sends racing Close.
	sendMu sync.RWMutex
	closed bool

	// stopped is closed once the workers' context is done. A send blocked on
	// a full queue gives up then so Close can take sendMu.
	stopped  chan struct{}
	stopOnce sync.Once

	wg sync.WaitGroup
}

var _ ports.RefreshPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.Invalidation, numWorkers),
		log:      log,
		handlers: make(map[domain.Resource][]ports.RefreshHandler),
		stopped:  make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Invalidation, channelBuffer)
	}
	return d
}

// Subscribe registers h for invalidations of res.
func (d *Dispatcher) Subscribe(res domain.Resource, h ports.RefreshHandler) {
	d.handlersMu.Lock()
	defer d.handlersMu.Unlock()
	d.handlers[res] = append(d.handlers[res], h)
}

// Start launches the workers. They stop when ctx is cancelled or after Close
// once their queues are drained.
func (d *Dispatcher) Start(ctx context.Context) {
	context.AfterFunc(ctx, func() {
		d.stopOnce.Do(func() { close(d.stopped) })
	})
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Publish queues inv for the worker owning its resource. It blocks only when
// that worker's buffer is full. Invalidations published after Close or after
// the workers' context is cancelled are dropped.
func (d *Dispatcher) Publish(inv domain.Invalidation) {
	d.sendMu.RLock()
	defer d.sendMu.RUnlock()
	if d.closed {
		d.log.Debug().Str("resource", string(inv.Resource)).Msg("dispatcher closed, invalidation dropped")
		return
	}
	select {
	case <-d.stopped:
		d.log.Debug().Str("resource", string(inv.Resource)).Msg("dispatcher stopped, invalidation dropped")
		return
	default:
	}

	idx := d.shardIndex(inv.Resource)
	select {
	case d.workers[idx] <- inv:
	case <-d.stopped:
		d.log.Debug().Str("resource", string(inv.Resource)).Msg("dispatcher stopped, invalidation dropped")
		return
	}
	metrics.RefreshEventsTotal.WithLabelValues(string(inv.Resource), string(inv.Action)).Inc()
	metrics.RefreshQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// Close stops accepting invalidations and waits for queued ones to be
// handled. It is safe to call more than once.
func (d *Dispatcher) Close() {
	d.sendMu.Lock()
	if d.closed {
		d.sendMu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.sendMu.Unlock()
	d.wg.Wait()
}

// shardIndex maps a resource deterministically to a worker index.
func (d *Dispatcher) shardIndex(res domain.Resource) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(res))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Invalidation) {
	defer d.wg.Done()
	workerID := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case inv, ok := <-ch:
			if !ok {
				return
			}
			metrics.RefreshQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))
			d.deliver(ctx, id, inv)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, workerID int, inv domain.Invalidation) {
	d.handlersMu.RLock()
	handlers := d.handlers[inv.Resource]
	d.handlersMu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, inv); err != nil {
			metrics.RefreshHandlerErrorsTotal.WithLabelValues(string(inv.Resource)).Inc()
			d.log.Error().Err(err).
				Str("resource", string(inv.Resource)).
				Str("action", string(inv.Action)).
				Int("id", inv.ID).
				Int("worker_id", workerID).
				Msg("refresh handler failed")
		}
	}
}
