package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// subscriberBuffer is the per-client view buffer. Views are whole dashboard
// renderings, so a shallow buffer is enough; a slow client only ever needs
// the newest one.
const subscriberBuffer = 4

// Subscriber represents one connected dashboard client.
//
// Each subscriber owns a buffered channel of views and a currently selected
// ticker. The ticker field is owned by the dispatch goroutine; clients
// change it through Dispatcher.SelectCoin.
type Subscriber struct {
	id     string
	ch     chan *View
	ticker string
}

// Views returns the channel dashboard views are delivered on. The channel is
// closed when the subscriber is removed or the dispatcher stops.
func (s *Subscriber) Views() <-chan *View { return s.ch }

// selection is a coin-change request routed to the dispatch goroutine.
type selection struct {
	sub    *Subscriber
	ticker string
}

// DispatcherConfig holds configuration parameters for the Dispatcher.
type DispatcherConfig struct {
	RefreshInterval time.Duration // Time between automatic refresh ticks
}

// Dispatcher drives the dashboard's event loop and fans views out to
// subscribers.
//
// A single goroutine owns the subscriber map, so no mutex is needed:
// subscription, unsubscription and coin-selection requests arrive through
// channels, and the refresh ticker fires in the same select loop. Every tick
// re-runs the snapshot pipeline once per subscriber (the fetch memo keeps
// that cheap when subscribers share a coin) and increments the global tick
// counter shown on the dashboard footer.
type Dispatcher struct {
	cfg              DispatcherConfig
	svc              *Service
	subscribers      map[string]*Subscriber
	subscriptionCh   chan *Subscriber
	unsubscriptionCh chan *Subscriber
	selectionCh      chan selection
	started          atomic.Bool
	tick             atomic.Uint64
	cancel           context.CancelFunc
}

// NewDispatcher creates a dispatcher over the given presenter service.
func NewDispatcher(cfg DispatcherConfig, svc *Service) *Dispatcher {
	return &Dispatcher{
		cfg:              cfg,
		svc:              svc,
		subscribers:      make(map[string]*Subscriber),
		subscriptionCh:   make(chan *Subscriber, 10),
		unsubscriptionCh: make(chan *Subscriber, 10),
		selectionCh:      make(chan selection, 10),
	}
}

// Start launches the dispatch goroutine. It fails if the dispatcher is
// already running or the refresh interval is not positive.
func (d *Dispatcher) Start(ctx context.Context) error {
	if d.cfg.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %v", d.cfg.RefreshInterval)
	}

	if !d.started.CompareAndSwap(false, true) {
		return errors.New("dispatcher already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.run(ctx)
	return nil
}

// Stop shuts the dispatch goroutine down and closes all subscriber channels.
func (d *Dispatcher) Stop() error {
	if !d.started.CompareAndSwap(true, false) {
		return errors.New("dispatcher not started")
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	return nil
}

// Tick returns the number of refresh ticks since the dispatcher started.
func (d *Dispatcher) Tick() uint64 { return d.tick.Load() }

// Subscribe registers a new client with an initial coin selection and pushes
// a first view immediately; the client does not wait for the next tick.
func (d *Dispatcher) Subscribe(ticker string) (*Subscriber, error) {
	if !d.started.Load() {
		return nil, errors.New("dispatcher not started")
	}

	// Validate up front so a bad ticker fails the subscription rather than
	// the dispatch loop.
	if _, err := d.svc.Registry().Resolve(ticker); err != nil {
		return nil, err
	}

	sub := &Subscriber{
		id:     uuid.NewString(),
		ch:     make(chan *View, subscriberBuffer),
		ticker: ticker,
	}

	select {
	case d.subscriptionCh <- sub:
	default:
		return nil, errors.New("subscription channel is full")
	}

	return sub, nil
}

// Unsubscribe removes a subscriber and closes its view channel.
func (d *Dispatcher) Unsubscribe(sub *Subscriber) error {
	select {
	case d.unsubscriptionCh <- sub:
		return nil
	default:
		return errors.New("unsubscription channel is full")
	}
}

// SelectCoin changes a subscriber's coin selection. The change takes effect
// in the dispatch goroutine, which pushes a fresh view for the new coin
// immediately.
func (d *Dispatcher) SelectCoin(sub *Subscriber, ticker string) error {
	if _, err := d.svc.Registry().Resolve(ticker); err != nil {
		return err
	}

	select {
	case d.selectionCh <- selection{sub: sub, ticker: ticker}:
		return nil
	default:
		return errors.New("selection channel is full")
	}
}

// run is the dispatch goroutine: the single owner of the subscribers map.
func (d *Dispatcher) run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.RefreshInterval)

	defer func() {
		ticker.Stop()
		for _, sub := range d.subscribers {
			close(sub.ch)
		}
		d.subscribers = make(map[string]*Subscriber)
		log.Info().Msg("dashboard dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case sub := <-d.subscriptionCh:
			d.subscribers[sub.id] = sub
			d.deliver(ctx, sub)
		case sub := <-d.unsubscriptionCh:
			if _, ok := d.subscribers[sub.id]; ok {
				delete(d.subscribers, sub.id)
				close(sub.ch)
			}
		case sel := <-d.selectionCh:
			if _, ok := d.subscribers[sel.sub.id]; ok {
				sel.sub.ticker = sel.ticker
				d.deliver(ctx, sel.sub)
			}
		case <-ticker.C:
			d.tick.Add(1)
			for _, sub := range d.subscribers {
				d.deliver(ctx, sub)
			}
		}
	}
}

// deliver builds a fresh view for one subscriber and sends it without
// blocking, dropping the oldest buffered view for a slow client.
func (d *Dispatcher) deliver(ctx context.Context, sub *Subscriber) {
	view, err := d.svc.Snapshot(ctx, sub.ticker, d.tick.Load())
	if err != nil {
		// Subscribe and SelectCoin validate tickers, so this means the
		// registry changed underneath us. Log and keep the loop alive.
		log.Error().Err(err).Str("ticker", sub.ticker).Msg("snapshot failed for subscriber")
		return
	}

	select {
	case sub.ch <- view:
	default:
		log.Info().Str("subscriber", sub.id).Str("ticker", sub.ticker).
			Msg("subscriber is too slow, dropping oldest buffered view")
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- view:
		default:
		}
	}
}
