package pavuterm

import (
	"slices"
	"testing"

	"github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCatalogEventFrom(t *testing.T) {
	tests := []struct {
		name  string
		event uint32
		want  CatalogEvent
	}{
		{"new sink", 0x0000, CatalogEvent{Category: CategorySink, Operation: OperationNew, Index: 5}},
		{"changed source", 0x0011, CatalogEvent{Category: CategorySource, Operation: OperationChanged, Index: 5}},
		{"removed sink input", 0x0022, CatalogEvent{Category: CategorySinkInput, Operation: OperationRemoved, Index: 5}},
		{"new source output", 0x0003, CatalogEvent{Category: CategorySourceOutput, Operation: OperationNew, Index: 5}},
		{"changed card", 0x0019, CatalogEvent{Category: CategoryCard, Operation: OperationChanged, Index: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := catalogEventFrom(tt.event, 5)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalogEventFrom_IgnoresOtherFacilities(t *testing.T) {
	// module and client events
	_, ok := catalogEventFrom(0x0004, 1)
	assert.False(t, ok)

	_, ok = catalogEventFrom(0x0005, 1)
	assert.False(t, ok)
}

func TestCardFrom_ProfileSelection(t *testing.T) {
	pc := &pulseCatalog{logger: zap.NewNop().Sugar()}

	info := &proto.GetCardInfoReply{
		CardIndex:         3,
		CardName:          "alsa_card.usb",
		ActiveProfileName: "b",
	}
	info.Profiles = slices.Grow(info.Profiles, 2)[:2]
	info.Profiles[0].Name = "a"
	info.Profiles[1].Name = "b"
	info.Profiles[1].Available = 1

	card := pc.cardFrom(info)

	assert.Equal(t, uint32(3), card.Index)
	assert.Len(t, card.Profiles, 2)
	assert.Equal(t, 1, card.ActiveProfile)
	assert.Equal(t, 1, card.SelectedProfile)
	assert.False(t, card.Profiles[0].Available)
	assert.True(t, card.Profiles[1].Available)
}

func TestCardFrom_NoActiveProfile(t *testing.T) {
	pc := &pulseCatalog{logger: zap.NewNop().Sugar()}

	card := pc.cardFrom(&proto.GetCardInfoReply{CardIndex: 1})

	assert.Equal(t, -1, card.ActiveProfile)
	assert.Equal(t, -1, card.SelectedProfile)
	assert.Empty(t, card.Profiles)
}
