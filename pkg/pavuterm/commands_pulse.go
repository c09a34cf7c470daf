package pavuterm

import (
	"context"

	"github.com/jfreymuth/pulse/proto"
	"go.uber.org/zap"

	"github.com/MixyLabs/pavuterm/pkg/pavuterm/volume"
)

const commandQueueSize = 64

// requester is the part of *proto.Client the command worker needs.
type requester interface {
	Request(req proto.RequestArgs, rpl proto.Reply) error
}

// pulseCommands queues mutation requests and sends them from a single worker goroutine,
// so callers holding the state lock never wait on the connection.
type pulseCommands struct {
	logger  *zap.SugaredLogger
	client  requester
	metrics *Metrics

	queue chan proto.RequestArgs
}

func newPulseCommands(logger *zap.SugaredLogger, client requester, metrics *Metrics) *pulseCommands {
	return &pulseCommands{
		logger:  logger.Named("commands"),
		client:  client,
		metrics: metrics,
		queue:   make(chan proto.RequestArgs, commandQueueSize),
	}
}

// run sends queued requests until ctx is done. Requests still queued then are dropped.
func (pc *pulseCommands) run(ctx context.Context) {
	for {
		select {
		case req := <-pc.queue:
			// results are not observed: a request for an entity that is already gone
			// simply fails on the server side
			if err := pc.client.Request(req, nil); err != nil {
				pc.logger.Debugw("Command failed", "command", commandName(req), "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (pc *pulseCommands) enqueue(req proto.RequestArgs) {
	name := commandName(req)

	select {
	case pc.queue <- req:
		pc.metrics.commandIssued(name)
	default:
		pc.logger.Warnw("Command queue full, dropping command", "command", name)
		pc.metrics.commandDropped(name)
	}
}

func (pc *pulseCommands) SetVolume(category Category, index uint32, volumes volume.ChannelVolumes) {
	cv := make(proto.ChannelVolumes, len(volumes))
	volume.IntoChannels(cv, volumes)

	switch category {
	case CategorySinkInput:
		pc.enqueue(&proto.SetSinkInputVolume{SinkInputIndex: index, ChannelVolumes: cv})
	case CategorySourceOutput:
		pc.enqueue(&proto.SetSourceOutputVolume{SourceOutputIndex: index, ChannelVolumes: cv})
	case CategorySink:
		pc.enqueue(&proto.SetSinkVolume{SinkIndex: index, ChannelVolumes: cv})
	case CategorySource:
		pc.enqueue(&proto.SetSourceVolume{SourceIndex: index, ChannelVolumes: cv})
	default:
		pc.logger.Warnw("Category has no volume", "category", category)
	}
}

func (pc *pulseCommands) SetMute(category Category, index uint32, mute bool) {
	switch category {
	case CategorySinkInput:
		pc.enqueue(&proto.SetSinkInputMute{SinkInputIndex: index, Mute: mute})
	case CategorySourceOutput:
		pc.enqueue(&proto.SetSourceOutputMute{SourceOutputIndex: index, Mute: mute})
	case CategorySink:
		pc.enqueue(&proto.SetSinkMute{SinkIndex: index, Mute: mute})
	case CategorySource:
		pc.enqueue(&proto.SetSourceMute{SourceIndex: index, Mute: mute})
	default:
		pc.logger.Warnw("Category cannot be muted", "category", category)
	}
}

func (pc *pulseCommands) Move(category Category, index uint32, target uint32) {
	switch category {
	case CategorySinkInput:
		pc.enqueue(&proto.MoveSinkInput{SinkInputIndex: index, DeviceIndex: target})
	case CategorySourceOutput:
		pc.enqueue(&proto.MoveSourceOutput{SourceOutputIndex: index, DeviceIndex: target})
	default:
		pc.logger.Warnw("Category cannot be moved", "category", category)
	}
}

func (pc *pulseCommands) Kill(category Category, index uint32) {
	switch category {
	case CategorySinkInput:
		pc.enqueue(&proto.KillSinkInput{SinkInputIndex: index})
	case CategorySourceOutput:
		pc.enqueue(&proto.KillSourceOutput{SourceOutputIndex: index})
	default:
		pc.logger.Warnw("Category cannot be killed", "category", category)
	}
}

func (pc *pulseCommands) SetCardProfile(card uint32, profile string) {
	pc.enqueue(&proto.SetCardProfile{CardIndex: card, ProfileName: profile})
}

func (pc *pulseCommands) UnloadModule(module uint32) {
	pc.enqueue(&proto.UnloadModule{ModuleIndex: module})
}

func commandName(req proto.RequestArgs) string {
	switch req.(type) {
	case *proto.SetSinkInputVolume, *proto.SetSourceOutputVolume, *proto.SetSinkVolume, *proto.SetSourceVolume:
		return "set_volume"
	case *proto.SetSinkInputMute, *proto.SetSourceOutputMute, *proto.SetSinkMute, *proto.SetSourceMute:
		return "set_mute"
	case *proto.MoveSinkInput, *proto.MoveSourceOutput:
		return "move"
	case *proto.KillSinkInput, *proto.KillSourceOutput:
		return "kill"
	case *proto.SetCardProfile:
		return "set_card_profile"
	case *proto.UnloadModule:
		return "unload_module"
	default:
		return "other"
	}
}
