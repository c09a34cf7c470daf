package pavuterm

import (
	"fmt"

	"github.com/MixyLabs/pavuterm/pkg/pavuterm/volume"
)

// NoIndex marks an absent server-side reference, e.g. a source that monitors no sink.
const NoIndex uint32 = 0xffffffff

// DeviceState is the server-reported state of a sink or source.
type DeviceState uint32

const (
	DeviceRunning   DeviceState = 0
	DeviceIdle      DeviceState = 1
	DeviceSuspended DeviceState = 2
)

func (s DeviceState) String() string {
	switch s {
	case DeviceRunning:
		return "running"
	case DeviceIdle:
		return "idle"
	case DeviceSuspended:
		return "suspended"
	default:
		return "invalid"
	}
}

// Props is an entity's property list, used only to decorate what gets displayed.
type Props map[string]string

const (
	propApplicationName   = "application.name"
	propProcessBinary     = "application.process.binary"
	propProcessID         = "application.process.id"
	propDeviceDescription = "device.description"
)

// SinkInput is a playback stream.
type SinkInput struct {
	Index          uint32
	Name           string
	SinkIndex      uint32
	Volume         volume.ChannelVolumes
	Mute           bool
	Corked         bool
	HasVolume      bool
	VolumeWritable bool
	Props          Props
}

func (s SinkInput) DisplayName() string {
	name := s.Name
	if app, ok := s.Props[propApplicationName]; ok {
		name = fmt.Sprintf("%s [%s]", name, app)
	}

	if s.Props[propProcessBinary] == "firefox" {
		name = fmt.Sprintf("%s [%s]", s.Name, "firefox")
	}

	return name
}

// Inactive reports whether the stream is currently not producing audible output.
func (s SinkInput) Inactive() bool {
	return s.Mute || !s.HasVolume || s.Corked
}

// SourceOutput is a capture stream.
type SourceOutput struct {
	Index          uint32
	Name           string
	SourceIndex    uint32
	Volume         volume.ChannelVolumes
	Mute           bool
	Corked         bool
	HasVolume      bool
	VolumeWritable bool
	Props          Props
}

func (s SourceOutput) DisplayName() string {
	if app, ok := s.Props[propApplicationName]; ok {
		return fmt.Sprintf("%s [%s]", s.Name, app)
	}
	return s.Name
}

func (s SourceOutput) Inactive() bool {
	return s.Mute || !s.HasVolume || s.Corked
}

// Port is a sink or source port.
type Port struct {
	Name        string
	Description string
	Priority    uint32
	Available   uint32
}

// Sink is an output device.
type Sink struct {
	Index         uint32
	Name          string
	Description   string
	Volume        volume.ChannelVolumes
	Mute          bool
	State         DeviceState
	OwnerModule   uint32
	MonitorSource uint32
	Props         Props
	Ports         []Port
	ActivePort    string
}

func (s Sink) DisplayName() string {
	if s.Description == "" {
		return s.Name
	}
	return s.Description
}

// Inactive reports whether the device is muted or suspended.
func (s Sink) Inactive() bool {
	return s.Mute || s.State == DeviceSuspended
}

// Source is an input device. Monitor sources carry the signal of a sink.
type Source struct {
	Index         uint32
	Name          string
	Description   string
	Volume        volume.ChannelVolumes
	Mute          bool
	State         DeviceState
	OwnerModule   uint32
	MonitorOfSink uint32
	Props         Props
	Ports         []Port
	ActivePort    string
}

func (s Source) DisplayName() string {
	if s.Description == "" {
		return s.Name
	}
	return s.Description
}

func (s Source) Inactive() bool {
	return s.Mute || s.State == DeviceSuspended
}

func (s Source) IsMonitor() bool {
	return s.MonitorOfSink != NoIndex
}

// Profile is one card profile.
type Profile struct {
	Name        string
	Description string
	Sinks       uint32
	Sources     uint32
	Priority    uint32
	Available   bool
}

func (p Profile) DisplayName() string {
	if p.Description == "" {
		return p.Name
	}
	return p.Description
}

// Card is a hardware card. SelectedProfile is the locally highlighted profile and is
// reset to ActiveProfile whenever the server sends a new snapshot. Both are -1 when the
// card has no profiles.
type Card struct {
	Index           uint32
	Name            string
	Driver          string
	OwnerModule     uint32
	Props           Props
	Profiles        []Profile
	ActiveProfile   int
	SelectedProfile int
}

func (c Card) DisplayName() string {
	if desc, ok := c.Props[propDeviceDescription]; ok {
		return desc
	}
	return c.Name
}

// indexed is implemented by every entity; the index is its registry key.
type indexed interface {
	entryIndex() uint32
}

// mixerEntry is implemented by everything that has a volume and a mute switch.
type mixerEntry interface {
	indexed
	channelVolumes() volume.ChannelVolumes
	muted() bool
}

func (s SinkInput) entryIndex() uint32                       { return s.Index }
func (s SinkInput) channelVolumes() volume.ChannelVolumes    { return s.Volume }
func (s SinkInput) muted() bool                              { return s.Mute }
func (s SourceOutput) entryIndex() uint32                    { return s.Index }
func (s SourceOutput) channelVolumes() volume.ChannelVolumes { return s.Volume }
func (s SourceOutput) muted() bool                           { return s.Mute }
func (s Sink) entryIndex() uint32                            { return s.Index }
func (s Sink) channelVolumes() volume.ChannelVolumes         { return s.Volume }
func (s Sink) muted() bool                                   { return s.Mute }
func (s Source) entryIndex() uint32                          { return s.Index }
func (s Source) channelVolumes() volume.ChannelVolumes       { return s.Volume }
func (s Source) muted() bool                                 { return s.Mute }
func (c Card) entryIndex() uint32                            { return c.Index }
