package pavuterm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MixyLabs/pavuterm/pkg/pavuterm/selmap"
)

// errQuitRequested ends the run group when the operator quits.
var errQuitRequested = errors.New("quit requested")

// Renderer draws one frame from the locked state.
type Renderer interface {
	Render(state *AppState)
}

// dispatcher applies catalog notifications to the shared state and drives rendering.
type dispatcher struct {
	logger   *zap.SugaredLogger
	catalog  CatalogSource
	state    *SharedState
	renderer Renderer
	metrics  *Metrics
	queue    *eventQueue

	pollInterval time.Duration
}

func newDispatcher(logger *zap.SugaredLogger, catalog CatalogSource, state *SharedState,
	renderer Renderer, metrics *Metrics, pollInterval time.Duration) *dispatcher {

	return &dispatcher{
		logger:       logger.Named("dispatch"),
		catalog:      catalog,
		state:        state,
		renderer:     renderer,
		metrics:      metrics,
		queue:        newEventQueue(),
		pollInterval: pollInterval,
	}
}

// initialize subscribes to notifications and then loads the initial listing. Subscribing
// first means nothing created in between is missed; entities seen by both are simply
// upserted twice.
func (d *dispatcher) initialize() error {
	if err := d.catalog.Subscribe(d.queue.enqueue); err != nil {
		d.logger.Warnw("Failed to subscribe to catalog notifications", "error", err)
		return fmt.Errorf("subscribe to catalog: %w", err)
	}

	loadAll(d, CategorySinkInput, d.catalog.ListSinkInputs, sinkInputsOf)
	loadAll(d, CategorySourceOutput, d.catalog.ListSourceOutputs, sourceOutputsOf)
	loadAll(d, CategorySink, d.catalog.ListSinks, sinksOf)
	loadAll(d, CategorySource, d.catalog.ListSources, sourcesOf)
	loadAll(d, CategoryCard, d.catalog.ListCards, cardsOf)

	d.logger.Info("Loaded initial catalog")

	return nil
}

func sinkInputsOf(a *AppState) *selmap.Map[uint32, SinkInput]       { return a.SinkInputs }
func sourceOutputsOf(a *AppState) *selmap.Map[uint32, SourceOutput] { return a.SourceOutputs }
func sinksOf(a *AppState) *selmap.Map[uint32, Sink]                 { return a.Sinks }
func sourcesOf(a *AppState) *selmap.Map[uint32, Source]             { return a.Sources }
func cardsOf(a *AppState) *selmap.Map[uint32, Card]                 { return a.Cards }

func loadAll[V indexed](d *dispatcher, category Category, list func() ([]V, error),
	registry func(*AppState) *selmap.Map[uint32, V]) {

	entries, err := list()
	if err != nil {
		d.logger.Warnw("Failed to list entities", "category", category, "error", err)
		return
	}

	d.state.Do(func(a *AppState) {
		r := registry(a)
		for _, entry := range entries {
			r.Upsert(entry.entryIndex(), entry)
		}
	})

	d.logger.Debugw("Listed entities", "category", category, "count", len(entries))
}

// fetchAndStore refetches the entity an event names without holding the lock, then
// upserts it. A failed fetch means the entity went away in the meantime and its removal
// is already queued.
func fetchAndStore[V indexed](d *dispatcher, event CatalogEvent, fetch func(uint32) (V, error),
	registry func(*AppState) *selmap.Map[uint32, V]) {

	entry, err := fetch(event.Index)
	if err != nil {
		d.logger.Debugw("Dropping notification for unavailable entity",
			"category", event.Category,
			"index", event.Index,
			"error", err)
		return
	}

	d.state.Do(func(a *AppState) {
		registry(a).Upsert(entry.entryIndex(), entry)
	})
}

func (d *dispatcher) apply(event CatalogEvent) {
	d.metrics.notificationReceived(event)

	if event.Operation == OperationRemoved {
		var removed bool
		d.state.Do(func(a *AppState) {
			removed = a.remove(event.Category, event.Index)
		})

		if !removed {
			d.logger.Debugw("Ignoring removal of unknown entity", "category", event.Category, "index", event.Index)
		}
		return
	}

	switch event.Category {
	case CategorySinkInput:
		fetchAndStore(d, event, d.catalog.GetSinkInput, sinkInputsOf)
	case CategorySourceOutput:
		fetchAndStore(d, event, d.catalog.GetSourceOutput, sourceOutputsOf)
	case CategorySink:
		fetchAndStore(d, event, d.catalog.GetSink, sinksOf)
	case CategorySource:
		fetchAndStore(d, event, d.catalog.GetSource, sourcesOf)
	case CategoryCard:
		fetchAndStore(d, event, d.catalog.GetCard, cardsOf)
	default:
		d.logger.Debugw("Ignoring notification for unknown category", "category", event.Category)
	}
}

func (a *AppState) remove(category Category, index uint32) bool {
	switch category {
	case CategorySinkInput:
		return a.SinkInputs.Remove(index)
	case CategorySourceOutput:
		return a.SourceOutputs.Remove(index)
	case CategorySink:
		return a.Sinks.Remove(index)
	case CategorySource:
		return a.Sources.Remove(index)
	case CategoryCard:
		return a.Cards.Remove(index)
	default:
		return false
	}
}

// run is the dispatch and render loop. Each iteration waits at most one poll interval for
// notifications, applies whatever is queued, renders if the active view or the force flag
// says so, and then checks for a quit request.
func (d *dispatcher) run(ctx context.Context) error {
	timer := time.NewTimer(d.pollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.queue.ready():
		case <-timer.C:
		}

		for _, event := range d.queue.drain() {
			d.apply(event)
		}

		if d.renderOnce() {
			d.logger.Info("Quit requested")
			return errQuitRequested
		}

		timer.Reset(d.pollInterval)
	}
}

// renderOnce draws a frame if one is due and reports whether quitting was requested.
func (d *dispatcher) renderOnce() bool {
	var quit bool

	d.state.Do(func(a *AppState) {
		if a.consumeRedraw() {
			d.renderer.Render(a)
			d.metrics.frameRendered()
		}
		quit = a.QuitRequested
	})

	return quit
}

// heartbeat pings the server every interval. A failed ping is fatal: there is no
// reconnect.
func (d *dispatcher) heartbeat(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		pingCtx, cancel := context.WithTimeout(ctx, max(interval, time.Second))
		err := d.catalog.Ping(pingCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			d.logger.Errorw("Lost connection to PulseAudio server", "error", err)
			return fmt.Errorf("check server connection: %w", err)
		}
	}
}
