package pavuterm

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

const (
	tabBarHeight  = 3
	gaugeHeight   = 3
	popupMargin   = 4
	unknownTarget = "?"
)

var (
	styleDefault  = tcell.StyleDefault
	styleActive   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleCurrent  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleTarget   = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleDim      = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleSelected = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

type binding struct {
	keys        string
	description string
}

var (
	commonBindings = []binding{
		{"F1 - F5", "Change tab"},
		{"Tab", "Cycle tabs"},
		{"q  ctrl-c", "Quit"},
		{"M", "Show / hide monitors"},
		{"?", "Hotkeys"},
		{"Esc", "Close popup"},
		{"j/down  k/up", "Movement"},
	}

	volumeBindings = []binding{
		{"^  1 - 0", "Volume 0% - 100%"},
		{"m", "Toggle mute"},
		{"h  l", "Volume down / up"},
		{"H  L", "Volume down / up (10% steps)"},
		{"ctrl-h  ctrl-l", "Volume 0% / 100%"},
	}

	viewBindings = [viewCount][]binding{
		ViewSinkInputs: {
			{"i  return", "Choose sink for selected stream"},
			{"K", "Kill stream"},
			{"ctrl-k", "Kill all corked streams"},
		},
		ViewSourceOutputs: {
			{"i  return", "Choose source for selected stream"},
			{"K", "Kill stream"},
			{"ctrl-k", "Kill all corked streams"},
		},
		ViewSinks: {
			{"D", "Unload owner module (remove sink)"},
		},
		ViewSources: {
			{"D", "Unload owner module (remove source)"},
		},
		ViewCards: {
			{"+  -", "Select profile for current card"},
			{"return", "Activate selected profile"},
		},
	}
)

func bindingsFor(view View) []binding {
	bindings := append([]binding{}, commonBindings...)
	if view != ViewCards {
		bindings = append(bindings, volumeBindings...)
	}
	return append(bindings, viewBindings[view]...)
}

// item is one entry of a view's list: a fixed-height block drawn into its own region.
type item struct {
	height int
	draw   func(r region)
}

// gaugeColor picks the bar colour: the selection is green, everything else yellow; both
// fade to gray when the entry is inactive, and an idle device is red.
func gaugeColor(selected, inactive, idle bool) tcell.Color {
	switch {
	case selected && inactive:
		return tcell.ColorGray
	case selected:
		return tcell.ColorGreen
	case inactive:
		return tcell.ColorDarkGray
	case idle:
		return tcell.ColorRed
	default:
		return tcell.ColorYellow
	}
}

func gaugeItem(title string, entry mixerEntry, color tcell.Color) item {
	return item{
		height: gaugeHeight,
		draw: func(r region) {
			inner := r.box(title, tcell.StyleDefault.Foreground(color), tcell.StyleDefault.Foreground(color))
			volumes := entry.channelVolumes()
			inner.gauge(volumes.Ratio(), volumes.Label(entry.muted()), color)
		},
	}
}

// Render draws one complete frame of the active view.
func (t *terminal) Render(a *AppState) {
	if t.needSync {
		t.screen.Sync()
		t.needSync = false
	}

	t.screen.Clear()

	w, h := t.screen.Size()
	screen := region{screen: t.screen, w: w, h: h}

	t.drawTabBar(screen.sub(0, 0, w, tabBarHeight), a)
	body := screen.sub(0, tabBarHeight, w, h-tabBarHeight)

	items, selected := viewItems(a)
	t.offsets[a.View] = scrollOffset(items, selected, t.offsets[a.View], body.h)
	drawItems(body, items, t.offsets[a.View])

	popup := a.Popups[a.View]
	switch {
	case popup.Help:
		drawHelpPopup(body, a.View)
	case popup.Move && a.View == ViewSinkInputs:
		drawSinkChooser(body, a)
	case popup.Move && a.View == ViewSourceOutputs:
		drawSourceChooser(body, a)
	}

	t.screen.Show()
}

func (t *terminal) drawTabBar(r region, a *AppState) {
	inner := r.box(" Tabs ", styleDefault, styleDefault)

	x := 1
	for view := ViewSinkInputs; view < viewCount; view++ {
		if view > 0 {
			x += inner.text(x, 0, " │ ", styleDim)
		}

		style := styleDefault
		if view == a.View {
			style = styleActive
		}
		x += inner.text(x, 0, fmt.Sprintf("F%d %s", int(view)+1, view.Title()), style)
	}

	if a.HideMonitors {
		status := "monitors hidden "
		inner.text(inner.w-len(status), 0, status, styleDim)
	}
}

// viewItems builds the visible entries of the active view and the position of the
// selection among them, -1 when the selection is hidden or absent.
func viewItems(a *AppState) ([]item, int) {
	var items []item
	selected := -1

	switch a.View {
	case ViewSinkInputs:
		key, _ := a.SinkInputs.SelectedKey()
		for stream := range a.SinkInputs.Values() {
			isSelected := stream.Index == key
			if isSelected {
				selected = len(items)
			}
			title := fmt.Sprintf(" %s  ->  %s ", stream.DisplayName(), sinkName(a, stream.SinkIndex))
			items = append(items, gaugeItem(title, stream, gaugeColor(isSelected, stream.Inactive(), false)))
		}

	case ViewSourceOutputs:
		key, _ := a.SourceOutputs.SelectedKey()
		for stream := range a.SourceOutputs.FilteredValues(a.SourceOutputVisible) {
			isSelected := stream.Index == key
			if isSelected {
				selected = len(items)
			}
			title := fmt.Sprintf(" %s  <-  %s ", stream.DisplayName(), sourceName(a, stream.SourceIndex))
			items = append(items, gaugeItem(title, stream, gaugeColor(isSelected, stream.Inactive(), false)))
		}

	case ViewSinks:
		key, _ := a.Sinks.SelectedKey()
		for sink := range a.Sinks.Values() {
			isSelected := sink.Index == key
			if isSelected {
				selected = len(items)
			}
			title := fmt.Sprintf(" %s ", sink.DisplayName())
			items = append(items, gaugeItem(title, sink, gaugeColor(isSelected, sink.Inactive(), sink.State == DeviceIdle)))
		}

	case ViewSources:
		key, _ := a.Sources.SelectedKey()
		for source := range a.Sources.FilteredValues(a.SourceVisible) {
			isSelected := source.Index == key
			if isSelected {
				selected = len(items)
			}
			title := fmt.Sprintf(" %s ", source.DisplayName())
			items = append(items, gaugeItem(title, source, gaugeColor(isSelected, source.Inactive(), source.State == DeviceIdle)))
		}

	case ViewCards:
		key, _ := a.Cards.SelectedKey()
		for card := range a.Cards.Values() {
			isSelected := card.Index == key
			if isSelected {
				selected = len(items)
			}
			items = append(items, cardItem(card, isSelected))
		}
	}

	return items, selected
}

func cardItem(card Card, selected bool) item {
	return item{
		height: 2 + len(card.Profiles),
		draw: func(r region) {
			titleStyle := styleDefault
			if selected {
				titleStyle = styleSelected
			}

			inner := r.box(fmt.Sprintf(" %s ", card.DisplayName()), styleDefault, titleStyle)

			for i, profile := range card.Profiles {
				style := styleDefault
				if i == card.SelectedProfile {
					style = styleTarget
				}
				if i == card.ActiveProfile {
					style = styleCurrent
				}
				inner.text(0, i, " "+profile.DisplayName(), style)
			}
		},
	}
}

func sinkName(a *AppState, index uint32) string {
	if sink, ok := a.Sinks.Get(index); ok {
		return sink.DisplayName()
	}
	return unknownTarget
}

func sourceName(a *AppState, index uint32) string {
	if source, ok := a.Sources.Get(index); ok {
		return source.DisplayName()
	}
	return unknownTarget
}

// scrollOffset returns the first row to show so that the selected item is fully visible,
// moving the previous offset as little as possible.
func scrollOffset(items []item, selected, previous, height int) int {
	total := 0
	top, bottom := 0, 0
	for i, it := range items {
		if i == selected {
			top, bottom = total, total+it.height
		}
		total += it.height
	}

	offset := min(previous, max(total-height, 0))
	if selected < 0 {
		return max(offset, 0)
	}

	if top < offset {
		offset = top
	}
	if bottom > offset+height {
		offset = bottom - height
	}

	return max(offset, 0)
}

func drawItems(r region, items []item, offset int) {
	y := -offset
	for _, it := range items {
		if y >= r.h {
			return
		}
		// items cut off at the top are skipped rather than drawn half-way
		if y >= 0 {
			it.draw(r.sub(0, y, r.w, it.height))
		}
		y += it.height
	}
}

func drawPopupFrame(body region, title string) region {
	r := body.inset(popupMargin)
	r.fill(' ', styleDefault)
	return r.box(title, styleDefault, styleDefault)
}

func drawHelpPopup(body region, view View) {
	inner := drawPopupFrame(body, " Keybindings ")

	for i, b := range bindingsFor(view) {
		inner.text(0, i, fmt.Sprintf(" %-17s %s", b.keys, b.description), styleDefault)
	}
}

// chooserLine is one device of a move chooser.
type chooserLine struct {
	index uint32
	name  string
}

func drawChooser(body region, title string, lines []chooserLine, current, target uint32) {
	inner := drawPopupFrame(body, title)

	targetRow := 0
	for i, line := range lines {
		if line.index == target {
			targetRow = i
		}
	}
	offset := max(targetRow-inner.h+1, 0)

	for i, line := range lines[offset:] {
		style := styleDefault
		if line.index == target {
			style = styleTarget
		}
		if line.index == current {
			style = styleCurrent
		}
		inner.text(0, i, fmt.Sprintf(" %s ", line.name), style)
	}
}

func drawSinkChooser(body region, a *AppState) {
	stream, ok := a.SinkInputs.Selected()
	if !ok {
		return
	}

	var lines []chooserLine
	for sink := range a.Sinks.Values() {
		lines = append(lines, chooserLine{index: sink.Index, name: sink.DisplayName()})
	}

	drawChooser(body, " Change Sink ", lines, stream.SinkIndex, a.Popups[ViewSinkInputs].MoveTarget)
}

func drawSourceChooser(body region, a *AppState) {
	stream, ok := a.SourceOutputs.Selected()
	if !ok {
		return
	}

	var lines []chooserLine
	for source := range a.Sources.FilteredValues(isNotMonitor) {
		lines = append(lines, chooserLine{index: source.Index, name: source.DisplayName()})
	}

	drawChooser(body, " Change Source ", lines, stream.SourceIndex, a.Popups[ViewSourceOutputs].MoveTarget)
}
