package pavuterm

import (
	"slices"

	"github.com/thoas/go-funk"

	"github.com/MixyLabs/pavuterm/pkg/pavuterm/volume"
)

var viewKeys = map[Key]View{
	Special(KeyF1): ViewSinkInputs,
	Special(KeyF2): ViewSourceOutputs,
	Special(KeyF3): ViewSinks,
	Special(KeyF4): ViewSources,
	Special(KeyF5): ViewCards,
}

// handleKey applies one keystroke. The caller holds the state lock; commands are only
// queued, never awaited.
func (a *AppState) handleKey(key Key, cmds CommandChannel) {
	switch key {
	case Char('q'), Ctrl('c'):
		a.QuitRequested = true
		return
	case Special(KeyTab):
		a.enterView(a.View.next())
		return
	case Char('M'):
		a.toggleMonitors()
		return
	}

	if view, ok := viewKeys[key]; ok {
		a.enterView(view)
		return
	}

	popup := &a.Popups[a.View]
	if popup.Help {
		if key == Special(KeyEsc) {
			popup.Help = false
			a.Redraw = true
		}
		return
	}

	switch a.View {
	case ViewSinkInputs:
		a.handleSinkInputKey(key, cmds)
	case ViewSourceOutputs:
		a.handleSourceOutputKey(key, cmds)
	case ViewSinks:
		a.handleSinkKey(key, cmds)
	case ViewSources:
		a.handleSourceKey(key, cmds)
	case ViewCards:
		a.handleCardKey(key, cmds)
	}
}

func (a *AppState) openHelp() {
	a.Popups[a.View].Help = true
	a.Redraw = true
}

func isDown(key Key) bool {
	return key == Char('j') || key == Special(KeyDown)
}

func isUp(key Key) bool {
	return key == Char('k') || key == Special(KeyUp)
}

// handleVolumeKey handles the volume and mute keys shared by every mixer view and reports
// whether key was one of them.
func handleVolumeKey(key Key, entry mixerEntry, category Category, settings VolumeSettings, cmds CommandChannel) bool {
	current := entry.channelVolumes()
	var next volume.ChannelVolumes

	switch {
	case key == Char('m'):
		cmds.SetMute(category, entry.entryIndex(), !entry.muted())
		return true
	case key == Char('h') || key == Special(KeyLeft):
		next = current.Decrease(settings.SmallStep)
	case key == Char('l') || key == Special(KeyRight):
		next = current.Increase(settings.SmallStep, settings.Limit)
	case key == Char('H'):
		next = current.Decrease(settings.BigStep)
	case key == Char('L'):
		next = current.Increase(settings.BigStep, settings.Limit)
	case key == Ctrl('h'):
		next = current.SetAll(volume.Muted)
	case key == Ctrl('l'):
		next = current.SetAll(min(volume.Norm, settings.Limit))
	default:
		n, ok := tenths(key)
		if !ok {
			return false
		}
		next = current.Tenths(n)
		if next.Loudest() > settings.Limit {
			next = next.SetAll(settings.Limit)
		}
	}

	cmds.SetVolume(category, entry.entryIndex(), next)

	return true
}

func (a *AppState) handleSinkInputKey(key Key, cmds CommandChannel) {
	popup := &a.Popups[ViewSinkInputs]
	if popup.Move {
		a.handleSinkChooserKey(key, cmds)
		return
	}

	switch key {
	case Ctrl('k'):
		streams := slices.Collect(a.SinkInputs.Values())
		for _, stream := range funk.Filter(streams, func(s SinkInput) bool { return s.Corked }).([]SinkInput) {
			cmds.Kill(CategorySinkInput, stream.Index)
		}
		return
	case Char('?'):
		a.openHelp()
		return
	}

	stream, ok := a.SinkInputs.Selected()
	if !ok {
		return
	}

	switch {
	case isDown(key):
		a.SinkInputs.SelectNext()
	case isUp(key):
		a.SinkInputs.SelectPrev()
	case key == Char('K'):
		cmds.Kill(CategorySinkInput, stream.Index)
	case key == Char('i') || key == Special(KeyEnter):
		popup.Move = true
		popup.MoveTarget = stream.SinkIndex
		a.Redraw = true
	default:
		handleVolumeKey(key, stream, CategorySinkInput, a.Volume, cmds)
	}
}

func (a *AppState) handleSinkChooserKey(key Key, cmds CommandChannel) {
	popup := &a.Popups[ViewSinkInputs]

	stream, ok := a.SinkInputs.Selected()
	if !ok {
		popup.Move = false
		a.Redraw = true
		return
	}

	switch {
	case key == Special(KeyEsc):
		popup.Move = false
		a.Redraw = true
	case key == Special(KeyEnter):
		if _, ok := a.Sinks.Get(popup.MoveTarget); ok {
			cmds.Move(CategorySinkInput, stream.Index, popup.MoveTarget)
		}
		popup.Move = false
		a.Redraw = true
	case isDown(key):
		if k, ok := a.Sinks.NextKey(popup.MoveTarget); ok {
			popup.MoveTarget = k
			a.Redraw = true
		}
	case isUp(key):
		if k, ok := a.Sinks.PrevKey(popup.MoveTarget); ok {
			popup.MoveTarget = k
			a.Redraw = true
		}
	}
}

func (a *AppState) handleSourceOutputKey(key Key, cmds CommandChannel) {
	popup := &a.Popups[ViewSourceOutputs]
	if popup.Move {
		a.handleSourceChooserKey(key, cmds)
		return
	}

	switch key {
	case Ctrl('k'):
		streams := slices.Collect(a.SourceOutputs.Values())
		for _, stream := range funk.Filter(streams, func(s SourceOutput) bool { return s.Corked }).([]SourceOutput) {
			cmds.Kill(CategorySourceOutput, stream.Index)
		}
		return
	case Char('?'):
		a.openHelp()
		return
	}

	stream, ok := a.SourceOutputs.Selected()
	if !ok {
		return
	}

	switch {
	case isDown(key):
		a.SourceOutputs.FilteredSelectNext(a.SourceOutputVisible)
		return
	case isUp(key):
		a.SourceOutputs.FilteredSelectPrev(a.SourceOutputVisible)
		return
	}

	// a hidden stream can stay selected, but it cannot be acted on
	if !a.SourceOutputVisible(stream) {
		return
	}

	switch {
	case key == Char('K'):
		cmds.Kill(CategorySourceOutput, stream.Index)
	case key == Char('i') || key == Special(KeyEnter):
		popup.Move = true
		popup.MoveTarget = stream.SourceIndex
		a.Redraw = true
	default:
		handleVolumeKey(key, stream, CategorySourceOutput, a.Volume, cmds)
	}
}

// handleSourceChooserKey drives the source chooser, which never offers monitors.
func (a *AppState) handleSourceChooserKey(key Key, cmds CommandChannel) {
	popup := &a.Popups[ViewSourceOutputs]

	stream, ok := a.SourceOutputs.Selected()
	if !ok {
		popup.Move = false
		a.Redraw = true
		return
	}

	switch {
	case key == Special(KeyEsc):
		popup.Move = false
		a.Redraw = true
	case key == Special(KeyEnter):
		if source, ok := a.Sources.Get(popup.MoveTarget); ok && !source.IsMonitor() {
			cmds.Move(CategorySourceOutput, stream.Index, popup.MoveTarget)
		}
		popup.Move = false
		a.Redraw = true
	case isDown(key):
		if k, ok := a.Sources.FilteredNextKey(popup.MoveTarget, isNotMonitor); ok {
			popup.MoveTarget = k
			a.Redraw = true
		}
	case isUp(key):
		if k, ok := a.Sources.FilteredPrevKey(popup.MoveTarget, isNotMonitor); ok {
			popup.MoveTarget = k
			a.Redraw = true
		}
	}
}

func (a *AppState) handleSinkKey(key Key, cmds CommandChannel) {
	if key == Char('?') {
		a.openHelp()
		return
	}

	sink, ok := a.Sinks.Selected()
	if !ok {
		return
	}

	switch {
	case isDown(key):
		a.Sinks.SelectNext()
	case isUp(key):
		a.Sinks.SelectPrev()
	case key == Char('D'):
		if sink.OwnerModule != NoIndex {
			cmds.UnloadModule(sink.OwnerModule)
		}
	default:
		handleVolumeKey(key, sink, CategorySink, a.Volume, cmds)
	}
}

func (a *AppState) handleSourceKey(key Key, cmds CommandChannel) {
	if key == Char('?') {
		a.openHelp()
		return
	}

	source, ok := a.Sources.Selected()
	if !ok {
		return
	}

	switch {
	case isDown(key):
		a.Sources.FilteredSelectNext(a.SourceVisible)
		return
	case isUp(key):
		a.Sources.FilteredSelectPrev(a.SourceVisible)
		return
	}

	if !a.SourceVisible(source) {
		return
	}

	switch {
	case key == Char('D'):
		if source.OwnerModule != NoIndex {
			cmds.UnloadModule(source.OwnerModule)
		}
	default:
		handleVolumeKey(key, source, CategorySource, a.Volume, cmds)
	}
}

func (a *AppState) handleCardKey(key Key, cmds CommandChannel) {
	if key == Char('?') {
		a.openHelp()
		return
	}

	switch {
	case isDown(key):
		a.Cards.SelectNext()
	case isUp(key):
		a.Cards.SelectPrev()
	case key == Char('+'):
		a.Cards.UpdateSelected(func(card *Card) {
			if len(card.Profiles) == 0 {
				return
			}
			card.SelectedProfile = min(card.SelectedProfile+1, len(card.Profiles)-1)
		})
	case key == Char('-'):
		a.Cards.UpdateSelected(func(card *Card) {
			if card.SelectedProfile > 0 {
				card.SelectedProfile--
			}
		})
	case key == Special(KeyEnter):
		card, ok := a.Cards.Selected()
		if !ok || card.SelectedProfile < 0 || card.SelectedProfile >= len(card.Profiles) {
			return
		}
		cmds.SetCardProfile(card.Index, card.Profiles[card.SelectedProfile].Name)
	}
}
