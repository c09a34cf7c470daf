package pavuterm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MixyLabs/pavuterm/pkg/pavuterm/volume"
)

// recordedCommand is one call made on a recordingCommands.
type recordedCommand struct {
	Name     string
	Category Category
	Index    uint32
	Volumes  volume.ChannelVolumes
	Mute     bool
	Target   uint32
	Profile  string
}

type recordingCommands struct {
	calls []recordedCommand
}

func (rc *recordingCommands) SetVolume(category Category, index uint32, volumes volume.ChannelVolumes) {
	rc.calls = append(rc.calls, recordedCommand{Name: "set_volume", Category: category, Index: index, Volumes: volumes})
}

func (rc *recordingCommands) SetMute(category Category, index uint32, mute bool) {
	rc.calls = append(rc.calls, recordedCommand{Name: "set_mute", Category: category, Index: index, Mute: mute})
}

func (rc *recordingCommands) Move(category Category, index uint32, target uint32) {
	rc.calls = append(rc.calls, recordedCommand{Name: "move", Category: category, Index: index, Target: target})
}

func (rc *recordingCommands) Kill(category Category, index uint32) {
	rc.calls = append(rc.calls, recordedCommand{Name: "kill", Category: category, Index: index})
}

func (rc *recordingCommands) SetCardProfile(card uint32, profile string) {
	rc.calls = append(rc.calls, recordedCommand{Name: "set_card_profile", Category: CategoryCard, Index: card, Profile: profile})
}

func (rc *recordingCommands) UnloadModule(module uint32) {
	rc.calls = append(rc.calls, recordedCommand{Name: "unload_module", Index: module})
}

var errNoSuchEntity = errors.New("no such entity")

// fakeCatalog serves whatever the test put into it and records the order of calls.
type fakeCatalog struct {
	mu sync.Mutex

	sinkInputs    map[uint32]SinkInput
	sourceOutputs map[uint32]SourceOutput
	sinks         map[uint32]Sink
	sources       map[uint32]Source
	cards         map[uint32]Card

	listErr  error
	pingErr  error
	calls    []string
	handler  func(CatalogEvent)
	released bool
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		sinkInputs:    map[uint32]SinkInput{},
		sourceOutputs: map[uint32]SourceOutput{},
		sinks:         map[uint32]Sink{},
		sources:       map[uint32]Source{},
		cards:         map[uint32]Card{},
	}
}

func (fc *fakeCatalog) record(call string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.calls = append(fc.calls, call)
}

func listOf[V any](fc *fakeCatalog, name string, m map[uint32]V) ([]V, error) {
	fc.record(name)

	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.listErr != nil {
		return nil, fc.listErr
	}

	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out, nil
}

func getOf[V any](fc *fakeCatalog, name string, m map[uint32]V, index uint32) (V, error) {
	fc.record(fmt.Sprintf("%s %d", name, index))

	fc.mu.Lock()
	defer fc.mu.Unlock()

	v, ok := m[index]
	if !ok {
		var zero V
		return zero, errNoSuchEntity
	}
	return v, nil
}

func (fc *fakeCatalog) ListSinkInputs() ([]SinkInput, error) {
	return listOf(fc, "list sink_input", fc.sinkInputs)
}

func (fc *fakeCatalog) ListSourceOutputs() ([]SourceOutput, error) {
	return listOf(fc, "list source_output", fc.sourceOutputs)
}

func (fc *fakeCatalog) ListSinks() ([]Sink, error) {
	return listOf(fc, "list sink", fc.sinks)
}

func (fc *fakeCatalog) ListSources() ([]Source, error) {
	return listOf(fc, "list source", fc.sources)
}

func (fc *fakeCatalog) ListCards() ([]Card, error) {
	return listOf(fc, "list card", fc.cards)
}

func (fc *fakeCatalog) GetSinkInput(index uint32) (SinkInput, error) {
	return getOf(fc, "get sink_input", fc.sinkInputs, index)
}

func (fc *fakeCatalog) GetSourceOutput(index uint32) (SourceOutput, error) {
	return getOf(fc, "get source_output", fc.sourceOutputs, index)
}

func (fc *fakeCatalog) GetSink(index uint32) (Sink, error) {
	return getOf(fc, "get sink", fc.sinks, index)
}

func (fc *fakeCatalog) GetSource(index uint32) (Source, error) {
	return getOf(fc, "get source", fc.sources, index)
}

func (fc *fakeCatalog) GetCard(index uint32) (Card, error) {
	return getOf(fc, "get card", fc.cards, index)
}

func (fc *fakeCatalog) Subscribe(handler func(CatalogEvent)) error {
	fc.record("subscribe")

	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.handler = handler

	return nil
}

func (fc *fakeCatalog) Ping(ctx context.Context) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.pingErr
}

func (fc *fakeCatalog) Release() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.released = true
	return nil
}

// emit delivers an event the way the connection's reader goroutine would.
func (fc *fakeCatalog) emit(event CatalogEvent) {
	fc.mu.Lock()
	handler := fc.handler
	fc.mu.Unlock()

	handler(event)
}

// countingRenderer counts frames and remembers the view of the last one.
type countingRenderer struct {
	frames   int
	lastView View
}

func (cr *countingRenderer) Render(a *AppState) {
	cr.frames++
	cr.lastView = a.View
}
