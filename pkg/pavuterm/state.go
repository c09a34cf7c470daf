package pavuterm

import (
	"sync"

	"github.com/MixyLabs/pavuterm/pkg/pavuterm/selmap"
	"github.com/MixyLabs/pavuterm/pkg/pavuterm/volume"
)

// View is one of the five tabs, one per entity category.
type View int

const (
	ViewSinkInputs View = iota
	ViewSourceOutputs
	ViewSinks
	ViewSources
	ViewCards

	viewCount
)

var viewNames = []string{"sink_inputs", "source_outputs", "sinks", "sources", "cards"}

var viewTitles = []string{"Sink Inputs", "Source Outputs", "Sinks", "Sources", "Cards"}

func (v View) String() string {
	if v < 0 || v >= viewCount {
		return "unknown"
	}
	return viewNames[v]
}

// Title is the tab bar label.
func (v View) Title() string {
	if v < 0 || v >= viewCount {
		return "?"
	}
	return viewTitles[v]
}

func (v View) next() View {
	return (v + 1) % viewCount
}

func viewFromString(name string) (View, bool) {
	for i, n := range viewNames {
		if n == name {
			return View(i), true
		}
	}
	return ViewSinkInputs, false
}

// Popup is the per-view transient popup state.
type Popup struct {
	Help bool

	// Move is the "move stream to another device" chooser on the stream views.
	// MoveTarget is the highlighted device key.
	Move       bool
	MoveTarget uint32
}

// VolumeSettings are the step sizes and upper bound used by volume keys, in raw units.
type VolumeSettings struct {
	SmallStep uint32
	BigStep   uint32
	Limit     uint32
}

func defaultVolumeSettings() VolumeSettings {
	return VolumeSettings{
		SmallStep: defaultSmallStep,
		BigStep:   defaultBigStep,
		Limit:     volume.Max,
	}
}

// AppState is everything the input, notification and render contexts share. It is only
// ever accessed through SharedState.Do.
type AppState struct {
	SinkInputs    *selmap.Map[uint32, SinkInput]
	SourceOutputs *selmap.Map[uint32, SourceOutput]
	Sinks         *selmap.Map[uint32, Sink]
	Sources       *selmap.Map[uint32, Source]
	Cards         *selmap.Map[uint32, Card]

	View         View
	Popups       [viewCount]Popup
	HideMonitors bool
	Volume       VolumeSettings

	// Redraw forces the next render pass regardless of registry changes.
	Redraw        bool
	QuitRequested bool
}

func newAppState(view View, hideMonitors bool, settings VolumeSettings) *AppState {
	return &AppState{
		SinkInputs:    selmap.New[uint32, SinkInput](),
		SourceOutputs: selmap.New[uint32, SourceOutput](),
		Sinks:         selmap.New[uint32, Sink](),
		Sources:       selmap.New[uint32, Source](),
		Cards:         selmap.New[uint32, Card](),
		View:          view,
		HideMonitors:  hideMonitors,
		Volume:        settings,
		Redraw:        true,
	}
}

// consumeRedraw reads and clears both the active view's dirty flag and the force flag,
// and reports whether a frame is due. Registries of inactive views keep their flag.
func (a *AppState) consumeRedraw() bool {
	changed := a.resetActiveChanged()
	redraw := a.Redraw
	a.Redraw = false

	return changed || redraw
}

func (a *AppState) resetActiveChanged() bool {
	switch a.View {
	case ViewSinkInputs:
		return a.SinkInputs.ResetChanged()
	case ViewSourceOutputs:
		return a.SourceOutputs.ResetChanged()
	case ViewSinks:
		return a.Sinks.ResetChanged()
	case ViewSources:
		return a.Sources.ResetChanged()
	case ViewCards:
		return a.Cards.ResetChanged()
	default:
		return false
	}
}

// enterView switches the active view and closes the popups of the view being entered.
func (a *AppState) enterView(view View) {
	a.View = view
	a.Popups[view] = Popup{}
	a.Redraw = true
}

// SourceVisible is the filter for the sources view.
func (a *AppState) SourceVisible(source Source) bool {
	return !(a.HideMonitors && source.IsMonitor())
}

// SourceOutputVisible is the filter for the recording view: with monitors hidden, streams
// recording from a monitor or from no source at all are hidden. A stream whose source is
// not known yet stays visible.
func (a *AppState) SourceOutputVisible(stream SourceOutput) bool {
	if !a.HideMonitors {
		return true
	}

	if stream.SourceIndex == NoIndex {
		return false
	}

	source, ok := a.Sources.Get(stream.SourceIndex)
	return !(ok && source.IsMonitor())
}

func isNotMonitor(source Source) bool {
	return !source.IsMonitor()
}

// toggleMonitors flips monitor visibility. When hiding, selections that became hidden
// move to the closest visible entry; a selection that is still visible stays where it is.
func (a *AppState) toggleMonitors() {
	a.HideMonitors = !a.HideMonitors

	if a.HideMonitors {
		if source, ok := a.Sources.Selected(); ok && !a.SourceVisible(source) {
			a.Sources.FilteredSelectNextElsePrev(a.SourceVisible)
		}
		if stream, ok := a.SourceOutputs.Selected(); ok && !a.SourceOutputVisible(stream) {
			a.SourceOutputs.FilteredSelectNextElsePrev(a.SourceOutputVisible)
		}
	}

	a.Redraw = true
}

// SharedState guards one AppState with one lock.
type SharedState struct {
	lock  sync.Mutex
	state *AppState
}

func NewSharedState(state *AppState) *SharedState {
	return &SharedState{state: state}
}

// Do runs fn with exclusive access to the state. fn must not block on I/O.
func (s *SharedState) Do(fn func(*AppState)) {
	s.lock.Lock()
	defer s.lock.Unlock()

	fn(s.state)
}
