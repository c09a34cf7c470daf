// Package volume implements the PulseAudio per-channel volume arithmetic used by the mixer.
package volume

import "fmt"

const (
	// Muted is silence.
	Muted uint32 = 0

	// Norm is 100%, unamplified.
	Norm uint32 = 0x10000

	// Max is the largest volume the server accepts.
	Max uint32 = 0x7fffffff
)

// ChannelVolumes holds one raw volume per channel.
type ChannelVolumes []uint32

// FromChannels copies a channel volume slice of any uint32-based element type.
func FromChannels[E ~uint32](src []E) ChannelVolumes {
	out := make(ChannelVolumes, len(src))
	for i, v := range src {
		out[i] = uint32(v)
	}
	return out
}

// IntoChannels copies cv into dst, which must have the same length.
func IntoChannels[E ~uint32](dst []E, cv ChannelVolumes) {
	for i, v := range cv {
		dst[i] = E(v)
	}
}

// Avg returns the mean of all channels.
func (cv ChannelVolumes) Avg() uint32 {
	if len(cv) == 0 {
		return Muted
	}

	var sum uint64
	for _, v := range cv {
		sum += uint64(v)
	}

	return uint32(sum / uint64(len(cv)))
}

// Loudest returns the largest channel volume.
func (cv ChannelVolumes) Loudest() uint32 {
	m := Muted
	for _, v := range cv {
		m = max(m, v)
	}
	return m
}

// Ratio returns the average volume relative to Norm, so 1.0 is 100%.
func (cv ChannelVolumes) Ratio() float64 {
	return float64(cv.Avg()) / float64(Norm)
}

// Label formats the average volume as a percentage, marking muted entries.
func (cv ChannelVolumes) Label(mute bool) string {
	label := fmt.Sprintf("%.0f%%", cv.Ratio()*100)
	if mute {
		label += " (muted)"
	}
	return label
}

// Scale returns a copy whose loudest channel is target, keeping channel balance.
func (cv ChannelVolumes) Scale(target uint32) ChannelVolumes {
	out := make(ChannelVolumes, len(cv))

	loudest := cv.Loudest()
	if loudest == Muted {
		return out.SetAll(target)
	}

	for i, v := range cv {
		out[i] = uint32(uint64(v) * uint64(target) / uint64(loudest))
	}

	return out
}

// Increase raises the loudest channel by step, not going beyond limit, and scales the
// others along with it.
func (cv ChannelVolumes) Increase(step, limit uint32) ChannelVolumes {
	m := cv.Loudest()
	if step >= limit || m >= limit-step {
		m = limit
	} else {
		m += step
	}
	return cv.Scale(m)
}

// Decrease lowers the loudest channel by step, stopping at Muted.
func (cv ChannelVolumes) Decrease(step uint32) ChannelVolumes {
	m := cv.Loudest()
	if m <= Muted+step {
		m = Muted
	} else {
		m -= step
	}
	return cv.Scale(m)
}

// SetAll returns a copy with every channel at v.
func (cv ChannelVolumes) SetAll(v uint32) ChannelVolumes {
	out := make(ChannelVolumes, len(cv))
	for i := range out {
		out[i] = v
	}
	return out
}

// Tenths returns a copy with every channel at n tenths of Norm, n in 0..10.
func (cv ChannelVolumes) Tenths(n uint32) ChannelVolumes {
	return cv.SetAll(Norm / 10 * n)
}

// LimitFromPercent converts a configured percentage into a raw limit. Zero means Max.
func LimitFromPercent(percent uint32) uint32 {
	if percent == 0 {
		return Max
	}

	limit := uint64(Norm) * uint64(percent) / 100
	if limit > uint64(Max) {
		return Max
	}

	return uint32(limit)
}
