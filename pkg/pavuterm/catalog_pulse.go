package pavuterm

import (
	"context"
	"fmt"
	"net"

	"github.com/jfreymuth/pulse/proto"
	"go.uber.org/zap"

	"github.com/MixyLabs/pavuterm/pkg/pavuterm/volume"
)

// subscription masks and event bits, as defined by the native protocol
const (
	subscriptionMaskSink         = 0x0001
	subscriptionMaskSource       = 0x0002
	subscriptionMaskSinkInput    = 0x0004
	subscriptionMaskSourceOutput = 0x0008
	subscriptionMaskCard         = 0x0200

	eventFacilityMask      = 0x000f
	eventFacilitySink      = 0x0000
	eventFacilitySource    = 0x0001
	eventFacilitySinkInput = 0x0002
	eventFacilityOutput    = 0x0003
	eventFacilityCard      = 0x0009

	eventTypeMask   = 0x0030
	eventTypeNew    = 0x0000
	eventTypeRemove = 0x0020
)

type pulseCatalog struct {
	logger *zap.SugaredLogger
	namer  *processNamer

	client *proto.Client
	conn   net.Conn
}

func newPulseCatalog(logger *zap.SugaredLogger, server, clientName string) (*pulseCatalog, error) {
	logger = logger.Named("catalog")

	client, conn, err := proto.Connect(server)
	if err != nil {
		logger.Warnw("Failed to establish PulseAudio connection", "server", server, "error", err)
		return nil, fmt.Errorf("establish PulseAudio connection: %w", err)
	}

	request := proto.SetClientName{
		Props: proto.PropList{
			"application.name": proto.PropListString(clientName),
		},
	}
	reply := proto.SetClientNameReply{}

	if err := client.Request(&request, &reply); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set client name: %w", err)
	}

	pc := &pulseCatalog{
		logger: logger,
		namer:  newProcessNamer(logger),
		client: client,
		conn:   conn,
	}

	logger.Debugw("Created PA catalog instance", "server", server, "clientIndex", reply.ClientIndex)

	return pc, nil
}

func (pc *pulseCatalog) Subscribe(handler func(CatalogEvent)) error {
	// the callback runs on the client's reader goroutine, so it must hand events off
	// without issuing requests of its own
	pc.client.Callback = func(msg interface{}) {
		switch msg := msg.(type) {
		case *proto.SubscribeEvent:
			event, ok := catalogEventFrom(uint32(msg.Event), msg.Index)
			if !ok {
				return
			}
			handler(event)
		}
	}

	mask := uint32(subscriptionMaskSink | subscriptionMaskSource | subscriptionMaskSinkInput |
		subscriptionMaskSourceOutput | subscriptionMaskCard)

	if err := pc.client.Request(&proto.Subscribe{Mask: proto.SubscriptionMask(mask)}, nil); err != nil {
		pc.logger.Warnw("Failed to subscribe to PulseAudio events", "error", err)
		return fmt.Errorf("subscribe to PulseAudio events: %w", err)
	}

	pc.logger.Debug("Subscribed to PA events")

	return nil
}

func catalogEventFrom(event, index uint32) (CatalogEvent, bool) {
	var category Category

	switch event & eventFacilityMask {
	case eventFacilitySink:
		category = CategorySink
	case eventFacilitySource:
		category = CategorySource
	case eventFacilitySinkInput:
		category = CategorySinkInput
	case eventFacilityOutput:
		category = CategorySourceOutput
	case eventFacilityCard:
		category = CategoryCard
	default:
		return CatalogEvent{}, false
	}

	operation := OperationChanged
	switch event & eventTypeMask {
	case eventTypeNew:
		operation = OperationNew
	case eventTypeRemove:
		operation = OperationRemoved
	}

	return CatalogEvent{Category: category, Operation: operation, Index: index}, true
}

func (pc *pulseCatalog) Ping(ctx context.Context) error {
	done := make(chan error, 1)

	go func() {
		done <- pc.client.Request(&proto.GetServerInfo{}, &proto.GetServerInfoReply{})
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("get server info: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("get server info: %w", ctx.Err())
	}
}

func (pc *pulseCatalog) Release() error {
	if err := pc.conn.Close(); err != nil {
		pc.logger.Warnw("Failed to close PulseAudio connection", "error", err)
		return fmt.Errorf("close PulseAudio connection: %w", err)
	}

	pc.logger.Debug("Released PA catalog instance")

	return nil
}

func (pc *pulseCatalog) ListSinkInputs() ([]SinkInput, error) {
	reply := proto.GetSinkInputInfoListReply{}
	if err := pc.client.Request(&proto.GetSinkInputInfoList{}, &reply); err != nil {
		return nil, fmt.Errorf("get sink input list: %w", err)
	}

	result := make([]SinkInput, 0, len(reply))
	for _, info := range reply {
		result = append(result, pc.sinkInputFrom(info))
	}

	return result, nil
}

func (pc *pulseCatalog) GetSinkInput(index uint32) (SinkInput, error) {
	reply := proto.GetSinkInputInfoReply{}
	if err := pc.client.Request(&proto.GetSinkInputInfo{SinkInputIndex: index}, &reply); err != nil {
		return SinkInput{}, fmt.Errorf("get sink input %d: %w", index, err)
	}

	return pc.sinkInputFrom(&reply), nil
}

func (pc *pulseCatalog) ListSourceOutputs() ([]SourceOutput, error) {
	reply := proto.GetSourceOutputInfoListReply{}
	if err := pc.client.Request(&proto.GetSourceOutputInfoList{}, &reply); err != nil {
		return nil, fmt.Errorf("get source output list: %w", err)
	}

	result := make([]SourceOutput, 0, len(reply))
	for _, info := range reply {
		result = append(result, pc.sourceOutputFrom(info))
	}

	return result, nil
}

func (pc *pulseCatalog) GetSourceOutput(index uint32) (SourceOutput, error) {
	reply := proto.GetSourceOutputInfoReply{}
	if err := pc.client.Request(&proto.GetSourceOutputInfo{SourceOutpuIndex: index}, &reply); err != nil {
		return SourceOutput{}, fmt.Errorf("get source output %d: %w", index, err)
	}

	return pc.sourceOutputFrom(&reply), nil
}

func (pc *pulseCatalog) ListSinks() ([]Sink, error) {
	reply := proto.GetSinkInfoListReply{}
	if err := pc.client.Request(&proto.GetSinkInfoList{}, &reply); err != nil {
		return nil, fmt.Errorf("get sink list: %w", err)
	}

	result := make([]Sink, 0, len(reply))
	for _, info := range reply {
		result = append(result, sinkFrom(info))
	}

	return result, nil
}

func (pc *pulseCatalog) GetSink(index uint32) (Sink, error) {
	reply := proto.GetSinkInfoReply{}
	if err := pc.client.Request(&proto.GetSinkInfo{SinkIndex: index}, &reply); err != nil {
		return Sink{}, fmt.Errorf("get sink %d: %w", index, err)
	}

	return sinkFrom(&reply), nil
}

func (pc *pulseCatalog) ListSources() ([]Source, error) {
	reply := proto.GetSourceInfoListReply{}
	if err := pc.client.Request(&proto.GetSourceInfoList{}, &reply); err != nil {
		return nil, fmt.Errorf("get source list: %w", err)
	}

	result := make([]Source, 0, len(reply))
	for _, info := range reply {
		result = append(result, sourceFrom(info))
	}

	return result, nil
}

func (pc *pulseCatalog) GetSource(index uint32) (Source, error) {
	reply := proto.GetSourceInfoReply{}
	if err := pc.client.Request(&proto.GetSourceInfo{SourceIndex: index}, &reply); err != nil {
		return Source{}, fmt.Errorf("get source %d: %w", index, err)
	}

	return sourceFrom(&reply), nil
}

func (pc *pulseCatalog) ListCards() ([]Card, error) {
	reply := proto.GetCardInfoListReply{}
	if err := pc.client.Request(&proto.GetCardInfoList{}, &reply); err != nil {
		return nil, fmt.Errorf("get card list: %w", err)
	}

	result := make([]Card, 0, len(reply))
	for _, info := range reply {
		result = append(result, pc.cardFrom(info))
	}

	return result, nil
}

func (pc *pulseCatalog) GetCard(index uint32) (Card, error) {
	reply := proto.GetCardInfoReply{}
	if err := pc.client.Request(&proto.GetCardInfo{CardIndex: index}, &reply); err != nil {
		return Card{}, fmt.Errorf("get card %d: %w", index, err)
	}

	return pc.cardFrom(&reply), nil
}

func propsFrom(pl proto.PropList) Props {
	props := make(Props, len(pl))
	for key, value := range pl {
		props[key] = value.String()
	}
	return props
}

func (pc *pulseCatalog) sinkInputFrom(info *proto.GetSinkInputInfoReply) SinkInput {
	props := propsFrom(info.Properties)
	pc.namer.decorate(props)

	return SinkInput{
		Index:          info.SinkInputIndex,
		Name:           info.MediaName,
		SinkIndex:      info.SinkIndex,
		Volume:         volume.FromChannels(info.ChannelVolumes),
		Mute:           info.Muted,
		Corked:         info.Corked,
		HasVolume:      info.VolumeReadable,
		VolumeWritable: info.VolumeWritable,
		Props:          props,
	}
}

func (pc *pulseCatalog) sourceOutputFrom(info *proto.GetSourceOutputInfoReply) SourceOutput {
	props := propsFrom(info.Properties)
	pc.namer.decorate(props)

	return SourceOutput{
		Index:          info.SourceOutpuIndex,
		Name:           info.MediaName,
		SourceIndex:    info.SourceIndex,
		Volume:         volume.FromChannels(info.ChannelVolumes),
		Mute:           info.Muted,
		Corked:         info.Corked,
		HasVolume:      info.VolumeReadable,
		VolumeWritable: info.VolumeWritable,
		Props:          props,
	}
}

func sinkFrom(info *proto.GetSinkInfoReply) Sink {
	sink := Sink{
		Index:         info.SinkIndex,
		Name:          info.SinkName,
		Description:   info.Device,
		Volume:        volume.FromChannels(info.ChannelVolumes),
		Mute:          info.Mute,
		State:         DeviceState(info.State),
		OwnerModule:   info.ModuleIndex,
		MonitorSource: info.MonitorSourceIndex,
		Props:         propsFrom(info.Properties),
		ActivePort:    info.ActivePortName,
	}

	for _, port := range info.Ports {
		sink.Ports = append(sink.Ports, Port{
			Name:        port.Name,
			Description: port.Description,
			Priority:    port.Priority,
			Available:   port.Available,
		})
	}

	return sink
}

func sourceFrom(info *proto.GetSourceInfoReply) Source {
	source := Source{
		Index:         info.SourceIndex,
		Name:          info.SourceName,
		Description:   info.Device,
		Volume:        volume.FromChannels(info.ChannelVolumes),
		Mute:          info.Mute,
		State:         DeviceState(info.State),
		OwnerModule:   info.ModuleIndex,
		MonitorOfSink: info.MonitorSourceIndex,
		Props:         propsFrom(info.Properties),
		ActivePort:    info.ActivePortName,
	}

	for _, port := range info.Ports {
		source.Ports = append(source.Ports, Port{
			Name:        port.Name,
			Description: port.Description,
			Priority:    port.Priority,
			Available:   port.Available,
		})
	}

	return source
}

func (pc *pulseCatalog) cardFrom(info *proto.GetCardInfoReply) Card {
	card := Card{
		Index:           info.CardIndex,
		Name:            info.CardName,
		Driver:          info.Driver,
		OwnerModule:     info.ModuleIndex,
		Props:           propsFrom(info.Properties),
		ActiveProfile:   -1,
		SelectedProfile: -1,
	}

	for i, profile := range info.Profiles {
		card.Profiles = append(card.Profiles, Profile{
			Name:        profile.Name,
			Description: profile.Description,
			Sinks:       profile.NumSinks,
			Sources:     profile.NumSources,
			Priority:    profile.Priority,
			Available:   profile.Available != 0,
		})

		if profile.Name == info.ActiveProfileName {
			card.ActiveProfile = i
		}
	}

	if card.ActiveProfile < 0 && info.ActiveProfileName != "" {
		pc.logger.Warnw("Active card profile not found in profile list",
			"cardIndex", info.CardIndex,
			"activeProfile", info.ActiveProfileName)
	}

	card.SelectedProfile = card.ActiveProfile

	return card
}
