package pavuterm

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// region is a clipped rectangle of the screen. Drawing outside it is silently dropped.
type region struct {
	screen tcell.Screen
	x, y   int
	w, h   int
}

func (r region) set(x, y int, c rune, style tcell.Style) {
	if x < 0 || y < 0 || x >= r.w || y >= r.h {
		return
	}
	r.screen.SetContent(r.x+x, r.y+y, c, nil, style)
}

// sub returns the part of r starting at (x, y) with the given size, clipped to r.
func (r region) sub(x, y, w, h int) region {
	x, y = max(x, 0), max(y, 0)
	w = max(min(w, r.w-x), 0)
	h = max(min(h, r.h-y), 0)
	return region{screen: r.screen, x: r.x + x, y: r.y + y, w: w, h: h}
}

// inset shrinks r by margin cells on every side.
func (r region) inset(margin int) region {
	return r.sub(margin, margin, r.w-2*margin, r.h-2*margin)
}

func (r region) fill(c rune, style tcell.Style) {
	for y := 0; y < r.h; y++ {
		for x := 0; x < r.w; x++ {
			r.set(x, y, c, style)
		}
	}
}

// text draws s at (x, y), truncated to the region's width, and returns the number of
// cells used.
func (r region) text(x, y int, s string, style tcell.Style) int {
	if x >= r.w {
		return 0
	}

	s = runewidth.Truncate(s, r.w-x, "…")

	start := x
	for _, c := range s {
		w := runewidth.RuneWidth(c)
		if w == 0 {
			continue
		}
		r.set(x, y, c, style)
		for i := 1; i < w; i++ {
			r.set(x+i, y, ' ', style)
		}
		x += w
	}

	return x - start
}

// box draws a border around r with title on the top edge and returns the inner region.
func (r region) box(title string, borderStyle, titleStyle tcell.Style) region {
	if r.w < 2 || r.h < 2 {
		return r.sub(0, 0, 0, 0)
	}

	for x := 1; x < r.w-1; x++ {
		r.set(x, 0, tcell.RuneHLine, borderStyle)
		r.set(x, r.h-1, tcell.RuneHLine, borderStyle)
	}
	for y := 1; y < r.h-1; y++ {
		r.set(0, y, tcell.RuneVLine, borderStyle)
		r.set(r.w-1, y, tcell.RuneVLine, borderStyle)
	}
	r.set(0, 0, tcell.RuneULCorner, borderStyle)
	r.set(r.w-1, 0, tcell.RuneURCorner, borderStyle)
	r.set(0, r.h-1, tcell.RuneLLCorner, borderStyle)
	r.set(r.w-1, r.h-1, tcell.RuneLRCorner, borderStyle)

	if title != "" {
		r.sub(1, 0, r.w-2, 1).text(0, 0, title, titleStyle)
	}

	return r.sub(1, 1, r.w-2, r.h-2)
}

// gauge draws a one-line bar filled to ratio (clamped to 1) with label centered on it.
func (r region) gauge(ratio float64, label string, color tcell.Color) {
	if r.w <= 0 || r.h <= 0 {
		return
	}

	ratio = min(max(ratio, 0), 1)
	filled := int(ratio * float64(r.w))

	filledStyle := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(color)
	emptyStyle := tcell.StyleDefault.Foreground(color)

	styleAt := func(x int) tcell.Style {
		if x < filled {
			return filledStyle
		}
		return emptyStyle
	}

	for x := 0; x < r.w; x++ {
		r.set(x, 0, ' ', styleAt(x))
	}

	label = runewidth.Truncate(label, r.w, "")
	x := (r.w - runewidth.StringWidth(label)) / 2
	for _, c := range label {
		r.set(x, 0, c, styleAt(x))
		x += max(runewidth.RuneWidth(c), 1)
	}
}
