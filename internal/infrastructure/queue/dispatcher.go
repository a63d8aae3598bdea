package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/harvestlink/marketplace/internal/core/domain"
	"github.com/harvestlink/marketplace/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	drainTimeout   = 5 * time.Second
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDropHook is called every time an event is discarded because its
// worker is full.
func WithDropHook(fn func()) Option {
	return func(d *Dispatcher) { d.onDrop = fn }
}

// Dispatcher routes login events to a fixed set of workers using consistent
// hashing on the user id, so events for one account are recorded in order.
type Dispatcher struct {
	workers  []chan domain.LoginEvent
	recorder ports.LoginRecorder
	log      zerolog.Logger
	onDrop   func()
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, recorder ports.LoginRecorder, log zerolog.Logger, opts ...Option) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.LoginEvent, numWorkers),
		recorder: recorder,
		log:      log,
		onDrop:   func() {},
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.LoginEvent, channelBuffer)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run starts the workers and blocks until ctx is cancelled and every worker
// has drained what it already holds.
func (d *Dispatcher) Run(ctx context.Context) error {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
	d.wg.Wait()
	return nil
}

// Enqueue hands an event to the worker responsible for its user. It never
// blocks: a full worker drops the event and Enqueue reports false.
func (d *Dispatcher) Enqueue(event domain.LoginEvent) bool {
	select {
	case d.workers[d.shardIndex(event.UserID)] <- event:
		return true
	default:
		d.onDrop()
		d.log.Warn().Str("user_id", event.UserID.String()).Msg("login event queue full, dropping event")
		return false
	}
}

// Depth returns the number of pending events per worker.
func (d *Dispatcher) Depth() []int {
	out := make([]int, len(d.workers))
	for i, ch := range d.workers {
		out[i] = len(ch)
	}
	return out
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(id domain.ID) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id.String()))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.LoginEvent) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(ctx, id, ch)
			return
		case event := <-ch:
			d.record(ctx, id, event)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context, id int, ch <-chan domain.LoginEvent) {
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()
	for {
		select {
		case event := <-ch:
			d.record(drainCtx, id, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) record(ctx context.Context, id int, event domain.LoginEvent) {
	if err := d.recorder.RecordLogin(ctx, event); err != nil {
		d.log.Error().Err(err).
			Str("user_id", event.UserID.String()).
			Int("worker_id", id).
			Msg("login event recording failed")
	}
}
