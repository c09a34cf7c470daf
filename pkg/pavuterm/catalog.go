package pavuterm

import (
	"context"

	"github.com/MixyLabs/pavuterm/pkg/pavuterm/volume"
)

// Category is one of the five kinds of entity the server reports.
type Category int

const (
	CategorySinkInput Category = iota
	CategorySourceOutput
	CategorySink
	CategorySource
	CategoryCard
)

func (c Category) String() string {
	switch c {
	case CategorySinkInput:
		return "sink_input"
	case CategorySourceOutput:
		return "source_output"
	case CategorySink:
		return "sink"
	case CategorySource:
		return "source"
	case CategoryCard:
		return "card"
	default:
		return "unknown"
	}
}

// Operation is the kind of change a catalog event announces.
type Operation int

const (
	OperationNew Operation = iota
	OperationChanged
	OperationRemoved
)

func (o Operation) String() string {
	switch o {
	case OperationNew:
		return "new"
	case OperationChanged:
		return "changed"
	case OperationRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// CatalogEvent announces that an entity was created, changed or removed. New and
// Changed events carry no data: the entity has to be fetched by index.
type CatalogEvent struct {
	Category  Category
	Operation Operation
	Index     uint32
}

// CatalogSource lists, fetches and watches the entities of an audio server.
type CatalogSource interface {
	ListSinkInputs() ([]SinkInput, error)
	ListSourceOutputs() ([]SourceOutput, error)
	ListSinks() ([]Sink, error)
	ListSources() ([]Source, error)
	ListCards() ([]Card, error)

	GetSinkInput(index uint32) (SinkInput, error)
	GetSourceOutput(index uint32) (SourceOutput, error)
	GetSink(index uint32) (Sink, error)
	GetSource(index uint32) (Source, error)
	GetCard(index uint32) (Card, error)

	// Subscribe starts delivering change events to handler. handler is called from the
	// source's own goroutine and must not block.
	Subscribe(handler func(CatalogEvent)) error

	// Ping round-trips a request to check that the connection is alive.
	Ping(ctx context.Context) error

	Release() error
}

// CommandChannel accepts fire-and-forget mutation requests. No method reports an
// outcome: effects show up later as catalog events.
type CommandChannel interface {
	SetVolume(category Category, index uint32, volumes volume.ChannelVolumes)
	SetMute(category Category, index uint32, mute bool)
	Move(category Category, index uint32, target uint32)
	Kill(category Category, index uint32)
	SetCardProfile(card uint32, profile string)
	UnloadModule(module uint32)
}
