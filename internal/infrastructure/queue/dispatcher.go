package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/personnel-directory/messaging-api/internal/api/metrics"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

const (
	defaultWorkers  = 4
	channelBuffer   = 256
	deliveryTimeout = 30 * time.Second
)

// Deliverer performs one delivery attempt.
type Deliverer interface {
	Deliver(ctx context.Context, n ports.Notification) error
}

// Dispatcher routes notifications to a fixed set of workers using consistent
// hashing on the address, so messages to one address go out in order.
// It implements ports.NotificationDispatcher.
type Dispatcher struct {
	workers   []chan ports.Notification
	deliverer Deliverer
	log       zerolog.Logger
	wg        sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, deliverer Deliverer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan ports.Notification, numWorkers),
		deliverer: deliverer,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Notification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled,
// abandoning anything still queued; use Close first to drain.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has stopped.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close stops accepting notifications and waits for the workers to deliver
// what is already queued. It returns ctx.Err() if ctx ends first; the caller
// then cancels the workers' context to abandon the rest.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch queues n on the worker responsible for its address. It never
// blocks the caller: when that worker's buffer is full the notification is
// dropped and logged.
func (d *Dispatcher) Dispatch(n ports.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	idx := d.shardIndex(n.Address)
	if d.closed {
		metrics.NotificationsTotal.WithLabelValues(string(n.Channel), "dropped").Inc()
		d.log.Warn().
			Int64("personnel_id", n.PersonnelID).
			Str("channel", string(n.Channel)).
			Msg("dispatcher closed, notification dropped")
		return
	}
	select {
	case d.workers[idx] <- n:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.NotificationsTotal.WithLabelValues(string(n.Channel), "dropped").Inc()
		d.log.Error().
			Int64("personnel_id", n.PersonnelID).
			Str("channel", string(n.Channel)).
			Int("worker_id", idx).
			Msg("notification queue full, dropped")
	}
}

// shardIndex maps an address deterministically to a worker index.
func (d *Dispatcher) shardIndex(address string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(address))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Notification) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			metrics.NotificationQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.deliver(ctx, id, n)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, n ports.Notification) {
	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	start := time.Now()
	err := d.deliverer.Deliver(ctx, n)
	metrics.NotificationDuration.WithLabelValues(string(n.Channel)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(string(n.Channel), "failed").Inc()
		d.log.Error().Err(err).
			Int64("personnel_id", n.PersonnelID).
			Str("channel", string(n.Channel)).
			Int("worker_id", id).
			Msg("notification delivery failed")
		return
	}
	metrics.NotificationsTotal.WithLabelValues(string(n.Channel), "sent").Inc()
}
