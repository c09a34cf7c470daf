package pavuterm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type dispatchFixture struct {
	catalog  *fakeCatalog
	renderer *countingRenderer
	state    *SharedState
	metrics  *Metrics
	d        *dispatcher
}

func newDispatchFixture(view View) *dispatchFixture {
	f := &dispatchFixture{
		catalog:  newFakeCatalog(),
		renderer: &countingRenderer{},
		state:    NewSharedState(newAppState(view, true, defaultVolumeSettings())),
		metrics:  NewMetrics(),
	}
	f.d = newDispatcher(zap.NewNop().Sugar(), f.catalog, f.state, f.renderer, f.metrics, time.Millisecond)

	return f
}

func (f *dispatchFixture) snapshot() *AppState {
	var snap *AppState
	f.state.Do(func(a *AppState) {
		snap = a
	})
	return snap
}

func TestInitialize_SubscribesBeforeListing(t *testing.T) {
	f := newDispatchFixture(ViewSinkInputs)
	f.catalog.sinks[1] = Sink{Index: 1}
	f.catalog.cards[4] = Card{Index: 4, ActiveProfile: -1, SelectedProfile: -1}

	require.NoError(t, f.d.initialize())

	assert.Equal(t, []string{
		"subscribe",
		"list sink_input",
		"list source_output",
		"list sink",
		"list source",
		"list card",
	}, f.catalog.calls)

	a := f.snapshot()
	assert.Equal(t, 1, a.Sinks.Len())
	assert.Equal(t, 1, a.Cards.Len())
}

func TestInitialize_ListErrorsAreNotFatal(t *testing.T) {
	f := newDispatchFixture(ViewSinkInputs)
	f.catalog.listErr = errors.New("timeout")

	require.NoError(t, f.d.initialize())
	assert.Equal(t, 0, f.snapshot().Sinks.Len())
}

func TestApply_NewEntityIsFetched(t *testing.T) {
	f := newDispatchFixture(ViewSinkInputs)
	f.catalog.sinkInputs[5] = SinkInput{Index: 5, Name: "music"}

	f.d.apply(CatalogEvent{Category: CategorySinkInput, Operation: OperationNew, Index: 5})

	stream, ok := f.snapshot().SinkInputs.Get(5)
	require.True(t, ok)
	assert.Equal(t, "music", stream.Name)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.notifications.WithLabelValues("sink_input", "new")))
}

func TestApply_ChangedEntityIsReplaced(t *testing.T) {
	f := newDispatchFixture(ViewSinks)
	f.catalog.sinks[1] = Sink{Index: 1, Mute: false}
	f.d.apply(CatalogEvent{Category: CategorySink, Operation: OperationNew, Index: 1})

	f.catalog.sinks[1] = Sink{Index: 1, Mute: true}
	f.d.apply(CatalogEvent{Category: CategorySink, Operation: OperationChanged, Index: 1})

	sink, ok := f.snapshot().Sinks.Get(1)
	require.True(t, ok)
	assert.True(t, sink.Mute)
	assert.Equal(t, 1, f.snapshot().Sinks.Len())
}

func TestApply_Removal(t *testing.T) {
	f := newDispatchFixture(ViewSources)
	f.state.Do(func(a *AppState) {
		a.Sources.Upsert(2, micSource(2))
		a.Sources.Upsert(3, micSource(3))
	})

	f.d.apply(CatalogEvent{Category: CategorySource, Operation: OperationRemoved, Index: 2})

	a := f.snapshot()
	_, ok := a.Sources.Get(2)
	assert.False(t, ok)
	key, _ := a.Sources.SelectedKey()
	assert.Equal(t, uint32(3), key, "selection moves to the next entry")
	assert.NotContains(t, f.catalog.calls, "get source 2", "removals are not fetched")
}

func TestApply_StaleRemovalIsIgnored(t *testing.T) {
	f := newDispatchFixture(ViewCards)

	assert.NotPanics(t, func() {
		f.d.apply(CatalogEvent{Category: CategoryCard, Operation: OperationRemoved, Index: 9})
	})
	assert.Equal(t, 0, f.snapshot().Cards.Len())
}

func TestApply_FailedFetchIsDropped(t *testing.T) {
	f := newDispatchFixture(ViewSourceOutputs)

	f.d.apply(CatalogEvent{Category: CategorySourceOutput, Operation: OperationNew, Index: 8})

	assert.Contains(t, f.catalog.calls, "get source_output 8")
	assert.Equal(t, 0, f.snapshot().SourceOutputs.Len())
}

func TestRenderOnce(t *testing.T) {
	f := newDispatchFixture(ViewSinkInputs)

	assert.False(t, f.d.renderOnce())
	assert.Equal(t, 1, f.renderer.frames, "the first frame is forced")

	f.d.renderOnce()
	assert.Equal(t, 1, f.renderer.frames, "nothing changed")

	f.state.Do(func(a *AppState) {
		a.Sinks.Upsert(1, Sink{Index: 1})
	})
	f.d.renderOnce()
	assert.Equal(t, 1, f.renderer.frames, "inactive views do not render")

	f.state.Do(func(a *AppState) {
		a.SinkInputs.Upsert(1, SinkInput{Index: 1})
	})
	f.d.renderOnce()
	assert.Equal(t, 2, f.renderer.frames)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.frames))

	f.state.Do(func(a *AppState) {
		a.QuitRequested = true
	})
	assert.True(t, f.d.renderOnce())
}

func TestRun_AppliesQueuedEventsAndQuits(t *testing.T) {
	f := newDispatchFixture(ViewSinkInputs)
	f.catalog.sinkInputs[7] = SinkInput{Index: 7}
	require.NoError(t, f.d.initialize())

	f.catalog.emit(CatalogEvent{Category: CategorySinkInput, Operation: OperationNew, Index: 7})

	done := make(chan error, 1)
	go func() {
		done <- f.d.run(context.Background())
	}()

	require.Eventually(t, func() bool {
		var ok bool
		f.state.Do(func(a *AppState) {
			_, ok = a.SinkInputs.Get(7)
		})
		return ok
	}, time.Second, time.Millisecond)

	f.state.Do(func(a *AppState) {
		a.QuitRequested = true
	})

	select {
	case err := <-done:
		assert.ErrorIs(t, err, errQuitRequested)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after quit was requested")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := newDispatchFixture(ViewSinkInputs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, f.d.run(ctx))
}

func TestHeartbeat_FailureIsFatal(t *testing.T) {
	f := newDispatchFixture(ViewSinkInputs)
	f.catalog.pingErr = errors.New("connection reset")

	err := f.d.heartbeat(context.Background(), time.Millisecond)

	require.Error(t, err)
	assert.ErrorIs(t, err, f.catalog.pingErr)
}

func TestHeartbeat_StopsOnCancel(t *testing.T) {
	f := newDispatchFixture(ViewSinkInputs)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.NoError(t, f.d.heartbeat(ctx, time.Millisecond))
}
