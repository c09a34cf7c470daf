package pavuterm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

// snapshotStyles are the lipgloss styles of the list output. The plain set is used when
// the output is not a terminal.
type snapshotStyles struct {
	Heading  lipgloss.Style
	Name     lipgloss.Style
	Muted    lipgloss.Style
	Inactive lipgloss.Style
	Active   lipgloss.Style
	Detail   lipgloss.Style
}

func newSnapshotStyles(color bool) snapshotStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return snapshotStyles{
			Heading:  plain,
			Name:     plain,
			Muted:    plain,
			Inactive: plain,
			Active:   plain,
			Detail:   plain,
		}
	}

	return snapshotStyles{
		Heading:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")).MarginTop(1),
		Name:     lipgloss.NewStyle().Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Inactive: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Active:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Detail:   lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	}
}

// snapshot is everything the server reported at one point in time.
type snapshot struct {
	SinkInputs    []SinkInput
	SourceOutputs []SourceOutput
	Sinks         []Sink
	Sources       []Source
	Cards         []Card
}

// PrintSnapshot connects to the server, lists every entity once and prints them to out.
func PrintSnapshot(logger *zap.SugaredLogger, out io.Writer, configFile string, server string) error {
	logger = logger.Named("list")

	notifier, err := NewDesktopNotifier(logger)
	if err != nil {
		return fmt.Errorf("create new DesktopNotifier: %w", err)
	}

	configMan, err := NewConfig(logger, notifier, configFile)
	if err != nil {
		return fmt.Errorf("create new Config: %w", err)
	}

	if err := configMan.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	conf := configMan.Current()
	if server != "" {
		conf.Server = server
	}

	catalog, err := newPulseCatalog(logger, conf.Server, conf.ClientName)
	if err != nil {
		return fmt.Errorf("create new pulseCatalog: %w", err)
	}
	defer func() {
		_ = catalog.Release()
	}()

	snap, err := takeSnapshot(catalog)
	if err != nil {
		return err
	}

	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd())
	}

	_, err = io.WriteString(out, formatSnapshot(snap, conf.HideMonitors, newSnapshotStyles(color)))
	return err
}

func takeSnapshot(catalog CatalogSource) (snapshot, error) {
	var snap snapshot
	var err error

	if snap.SinkInputs, err = catalog.ListSinkInputs(); err != nil {
		return snapshot{}, fmt.Errorf("list sink inputs: %w", err)
	}
	if snap.SourceOutputs, err = catalog.ListSourceOutputs(); err != nil {
		return snapshot{}, fmt.Errorf("list source outputs: %w", err)
	}
	if snap.Sinks, err = catalog.ListSinks(); err != nil {
		return snapshot{}, fmt.Errorf("list sinks: %w", err)
	}
	if snap.Sources, err = catalog.ListSources(); err != nil {
		return snapshot{}, fmt.Errorf("list sources: %w", err)
	}
	if snap.Cards, err = catalog.ListCards(); err != nil {
		return snapshot{}, fmt.Errorf("list cards: %w", err)
	}

	return snap, nil
}

// formatSnapshot lays the snapshot out the way the views show it, one section per view.
// The snapshot is loaded into a throwaway state so that name lookups and monitor
// filtering behave exactly as in the interactive views.
func formatSnapshot(snap snapshot, hideMonitors bool, styles snapshotStyles) string {
	a := newAppState(ViewSinkInputs, hideMonitors, defaultVolumeSettings())
	for _, e := range snap.SinkInputs {
		a.SinkInputs.Upsert(e.Index, e)
	}
	for _, e := range snap.SourceOutputs {
		a.SourceOutputs.Upsert(e.Index, e)
	}
	for _, e := range snap.Sinks {
		a.Sinks.Upsert(e.Index, e)
	}
	for _, e := range snap.Sources {
		a.Sources.Upsert(e.Index, e)
	}
	for _, e := range snap.Cards {
		a.Cards.Upsert(e.Index, e)
	}

	var b strings.Builder

	heading := func(view View) {
		b.WriteString(styles.Heading.Render(view.Title()))
		b.WriteString("\n")
	}

	line := func(index uint32, name string, entry mixerEntry, inactive bool, detail string) {
		label := entry.channelVolumes().Label(entry.muted())
		switch {
		case entry.muted():
			label = styles.Muted.Render(label)
		case inactive:
			label = styles.Inactive.Render(label)
		default:
			label = styles.Active.Render(label)
		}

		fmt.Fprintf(&b, "  %4d  %s  %s", index, styles.Name.Render(name), label)
		if detail != "" {
			fmt.Fprintf(&b, "  %s", styles.Detail.Render(detail))
		}
		b.WriteString("\n")
	}

	heading(ViewSinkInputs)
	for s := range a.SinkInputs.Values() {
		line(s.Index, s.DisplayName(), s, s.Inactive(), "-> "+sinkName(a, s.SinkIndex))
	}

	heading(ViewSourceOutputs)
	for s := range a.SourceOutputs.FilteredValues(a.SourceOutputVisible) {
		line(s.Index, s.DisplayName(), s, s.Inactive(), "<- "+sourceName(a, s.SourceIndex))
	}

	heading(ViewSinks)
	for s := range a.Sinks.Values() {
		line(s.Index, s.DisplayName(), s, s.Inactive(), s.State.String())
	}

	heading(ViewSources)
	for s := range a.Sources.FilteredValues(a.SourceVisible) {
		line(s.Index, s.DisplayName(), s, s.Inactive(), s.State.String())
	}

	heading(ViewCards)
	for c := range a.Cards.Values() {
		fmt.Fprintf(&b, "  %4d  %s\n", c.Index, styles.Name.Render(c.DisplayName()))
		for i, profile := range c.Profiles {
			marker := " "
			name := profile.DisplayName()
			if i == c.ActiveProfile {
				marker = "*"
				name = styles.Active.Render(name)
			}
			fmt.Fprintf(&b, "        %s %s\n", marker, name)
		}
	}

	return b.String()
}
