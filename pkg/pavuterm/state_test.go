package pavuterm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MixyLabs/pavuterm/pkg/pavuterm/volume"
)

func monitorSource(index, sink uint32) Source {
	return Source{Index: index, Name: "monitor", MonitorOfSink: sink, OwnerModule: NoIndex, Volume: volume.ChannelVolumes{volume.Norm}}
}

func micSource(index uint32) Source {
	return Source{Index: index, Name: "mic", MonitorOfSink: NoIndex, OwnerModule: NoIndex, Volume: volume.ChannelVolumes{volume.Norm}}
}

func TestConsumeRedraw_InitialFrame(t *testing.T) {
	a := newAppState(ViewSinkInputs, true, defaultVolumeSettings())

	assert.True(t, a.consumeRedraw(), "a new state must draw its first frame")
	assert.False(t, a.consumeRedraw())
}

func TestConsumeRedraw_InactiveViewKeepsFlag(t *testing.T) {
	a := newAppState(ViewSinkInputs, true, defaultVolumeSettings())
	a.consumeRedraw()

	a.Sinks.Upsert(1, Sink{Index: 1})

	assert.False(t, a.consumeRedraw(), "changes in an inactive view do not cause a frame")
	assert.True(t, a.Sinks.Changed(), "the inactive registry keeps its dirty flag")

	a.enterView(ViewSinks)

	assert.True(t, a.consumeRedraw())
	assert.False(t, a.Sinks.Changed())
	assert.False(t, a.consumeRedraw())
}

func TestConsumeRedraw_SourceChangeLeavesStreamViewStale(t *testing.T) {
	a := newAppState(ViewSourceOutputs, true, defaultVolumeSettings())
	a.Sources.Upsert(1, micSource(1))
	a.SourceOutputs.Upsert(10, SourceOutput{Index: 10, SourceIndex: 1})
	a.consumeRedraw()

	a.Sources.Upsert(1, monitorSource(1, 0))

	assert.False(t, a.SourceOutputVisible(SourceOutput{Index: 10, SourceIndex: 1}))
	assert.False(t, a.consumeRedraw(), "a source change does not redraw the source outputs view")

	a.Redraw = true
	assert.True(t, a.consumeRedraw())
}

func TestConsumeRedraw_ActiveViewChange(t *testing.T) {
	a := newAppState(ViewCards, true, defaultVolumeSettings())
	a.consumeRedraw()

	a.Cards.Upsert(3, Card{Index: 3})

	assert.True(t, a.consumeRedraw())
	assert.False(t, a.consumeRedraw())
}

func TestEnterView_ClosesPopups(t *testing.T) {
	a := newAppState(ViewSinkInputs, true, defaultVolumeSettings())
	a.Popups[ViewSinks] = Popup{Help: true}
	a.Popups[ViewSinkInputs] = Popup{Move: true, MoveTarget: 4}

	a.enterView(ViewSinks)

	assert.Equal(t, ViewSinks, a.View)
	assert.Equal(t, Popup{}, a.Popups[ViewSinks])
	assert.True(t, a.Popups[ViewSinkInputs].Move, "popups of other views are left alone")
}

func TestViewNext_Wraps(t *testing.T) {
	assert.Equal(t, ViewSourceOutputs, ViewSinkInputs.next())
	assert.Equal(t, ViewSinkInputs, ViewCards.next())
}

func TestViewFromString(t *testing.T) {
	view, ok := viewFromString("sources")
	assert.True(t, ok)
	assert.Equal(t, ViewSources, view)

	_, ok = viewFromString("mixer")
	assert.False(t, ok)

	assert.Equal(t, "source_outputs", ViewSourceOutputs.String())
	assert.Equal(t, "Source Outputs", ViewSourceOutputs.Title())
}

func TestSourceVisible(t *testing.T) {
	a := newAppState(ViewSources, true, defaultVolumeSettings())

	assert.False(t, a.SourceVisible(monitorSource(1, 0)))
	assert.True(t, a.SourceVisible(micSource(2)))

	a.HideMonitors = false
	assert.True(t, a.SourceVisible(monitorSource(1, 0)))
}

func TestSourceOutputVisible(t *testing.T) {
	a := newAppState(ViewSourceOutputs, true, defaultVolumeSettings())
	a.Sources.Upsert(1, monitorSource(1, 0))
	a.Sources.Upsert(2, micSource(2))

	assert.False(t, a.SourceOutputVisible(SourceOutput{Index: 10, SourceIndex: 1}), "recording a monitor")
	assert.True(t, a.SourceOutputVisible(SourceOutput{Index: 11, SourceIndex: 2}))
	assert.False(t, a.SourceOutputVisible(SourceOutput{Index: 12, SourceIndex: NoIndex}), "recording nothing")
	assert.True(t, a.SourceOutputVisible(SourceOutput{Index: 13, SourceIndex: 99}), "unknown sources count as visible")

	a.HideMonitors = false
	assert.True(t, a.SourceOutputVisible(SourceOutput{Index: 10, SourceIndex: 1}))
	assert.True(t, a.SourceOutputVisible(SourceOutput{Index: 12, SourceIndex: NoIndex}))
}

func TestToggleMonitors_ReanchorsHiddenSelection(t *testing.T) {
	a := newAppState(ViewSources, false, defaultVolumeSettings())
	a.Sources.Upsert(1, micSource(1))
	a.Sources.Upsert(2, monitorSource(2, 0))
	a.Sources.Upsert(3, micSource(3))
	a.Sources.SelectNext()

	key, _ := a.Sources.SelectedKey()
	require.Equal(t, uint32(2), key)

	a.toggleMonitors()

	assert.True(t, a.HideMonitors)
	key, _ = a.Sources.SelectedKey()
	assert.Equal(t, uint32(3), key, "moves to the next visible source")
	assert.True(t, a.Redraw)
}

func TestToggleMonitors_ReanchorsBackwards(t *testing.T) {
	a := newAppState(ViewSources, false, defaultVolumeSettings())
	a.Sources.Upsert(1, micSource(1))
	a.Sources.Upsert(2, monitorSource(2, 0))
	a.Sources.SelectNext()

	a.toggleMonitors()

	key, _ := a.Sources.SelectedKey()
	assert.Equal(t, uint32(1), key)
}

func TestToggleMonitors_ShowingKeepsSelection(t *testing.T) {
	a := newAppState(ViewSources, true, defaultVolumeSettings())
	a.Sources.Upsert(1, micSource(1))
	a.Sources.Upsert(2, monitorSource(2, 0))

	a.toggleMonitors()

	assert.False(t, a.HideMonitors)
	key, _ := a.Sources.SelectedKey()
	assert.Equal(t, uint32(1), key)
}

func TestToggleMonitors_HidingKeepsVisibleSelection(t *testing.T) {
	a := newAppState(ViewSources, false, defaultVolumeSettings())
	a.Sources.Upsert(1, micSource(1))
	a.Sources.Upsert(2, micSource(2))
	a.Sources.Upsert(3, monitorSource(3, 0))

	a.toggleMonitors()

	assert.True(t, a.HideMonitors)
	key, _ := a.Sources.SelectedKey()
	assert.Equal(t, uint32(1), key, "a visible selection is not moved to the next entry")
}

func TestToggleMonitors_ReanchorsSourceOutputs(t *testing.T) {
	a := newAppState(ViewSourceOutputs, false, defaultVolumeSettings())
	a.Sources.Upsert(1, monitorSource(1, 0))
	a.Sources.Upsert(2, micSource(2))
	a.SourceOutputs.Upsert(10, SourceOutput{Index: 10, SourceIndex: 1})
	a.SourceOutputs.Upsert(11, SourceOutput{Index: 11, SourceIndex: 2})

	a.toggleMonitors()

	key, _ := a.SourceOutputs.SelectedKey()
	assert.Equal(t, uint32(11), key)
}

func TestSharedState_Do(t *testing.T) {
	s := NewSharedState(newAppState(ViewSinkInputs, true, defaultVolumeSettings()))

	s.Do(func(a *AppState) {
		a.QuitRequested = true
	})

	var quit bool
	s.Do(func(a *AppState) {
		quit = a.QuitRequested
	})
	assert.True(t, quit)
}
