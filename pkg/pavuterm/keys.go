package pavuterm

import (
	"unicode"

	"github.com/gdamore/tcell/v2"
)

// KeyCode classifies a keystroke.
type KeyCode int

const (
	KeyUnknown KeyCode = iota
	KeyRune            // printable character in Rune
	KeyCtrl            // control-modified letter, lowercase letter in Rune
	KeyEnter
	KeyEsc
	KeyTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
)

// Key is a single keystroke. Keys are comparable, so handlers match them with ==.
type Key struct {
	Code KeyCode
	Rune rune
}

// Char returns the key for a printable character.
func Char(r rune) Key {
	return Key{Code: KeyRune, Rune: r}
}

// Ctrl returns the key for a control-modified letter.
func Ctrl(r rune) Key {
	return Key{Code: KeyCtrl, Rune: unicode.ToLower(r)}
}

// Special returns the key for a non-character code such as KeyEnter.
func Special(code KeyCode) Key {
	return Key{Code: code}
}

var specialKeys = map[tcell.Key]KeyCode{
	tcell.KeyEnter:  KeyEnter,
	tcell.KeyEscape: KeyEsc,
	tcell.KeyTab:    KeyTab,
	tcell.KeyUp:     KeyUp,
	tcell.KeyDown:   KeyDown,
	tcell.KeyLeft:   KeyLeft,
	tcell.KeyRight:  KeyRight,
	tcell.KeyF1:     KeyF1,
	tcell.KeyF2:     KeyF2,
	tcell.KeyF3:     KeyF3,
	tcell.KeyF4:     KeyF4,
	tcell.KeyF5:     KeyF5,
}

// keyFromEvent converts a tcell key event. Enter, Tab and Escape share their codes with
// Ctrl-M, Ctrl-I and Ctrl-[, so they are matched before the control range. Backspace
// arrives as Ctrl-H, which is what terminals send for it.
func keyFromEvent(ev *tcell.EventKey) Key {
	if ev.Key() == tcell.KeyRune {
		if ev.Modifiers()&tcell.ModCtrl != 0 {
			return Ctrl(ev.Rune())
		}
		return Char(ev.Rune())
	}

	if code, ok := specialKeys[ev.Key()]; ok {
		return Special(code)
	}

	if k := ev.Key(); k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return Ctrl(rune('a' + int(k-tcell.KeyCtrlA)))
	}

	return Special(KeyUnknown)
}

// tenths maps the volume preset keys: '^' is 0%, '1'..'9' are 10%..90% and '0' is 100%.
func tenths(key Key) (uint32, bool) {
	if key.Code != KeyRune {
		return 0, false
	}

	switch r := key.Rune; {
	case r == '^':
		return 0, true
	case r == '0':
		return 10, true
	case r >= '1' && r <= '9':
		return uint32(r - '0'), true
	default:
		return 0, false
	}
}
