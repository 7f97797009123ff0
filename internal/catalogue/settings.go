package catalogue

import (
	"fmt"
	"strings"
)

// BrightnessMode selects how deep the catalogue query reaches.
type BrightnessMode string

const (
	NakedEye BrightnessMode = "naked-eye"
	Bright   BrightnessMode = "bright"
	Faint    BrightnessMode = "faint"
	All      BrightnessMode = "all"
)

// BrightnessModes lists the modes in display order.
var BrightnessModes = []BrightnessMode{NakedEye, Bright, Faint, All}

// ParseBrightnessMode accepts a mode name, case-insensitively.
func ParseBrightnessMode(s string) (BrightnessMode, error) {
	m := BrightnessMode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range BrightnessModes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown brightness mode %q", s)
}

// Next cycles to the following mode.
func (m BrightnessMode) Next() BrightnessMode {
	for i, known := range BrightnessModes {
		if m == known {
			return BrightnessModes[(i+1)%len(BrightnessModes)]
		}
	}
	return NakedEye
}

// Description is a short human label for the mode.
func (m BrightnessMode) Description() string {
	switch m {
	case NakedEye:
		return "naked eye (G < 6)"
	case Bright:
		return "bright (G < 13)"
	case Faint:
		return "faint (G < 19)"
	case All:
		return "all stars"
	default:
		return string(m)
	}
}

// Settings are the user's query preferences.
type Settings struct {
	BrightnessMode  BrightnessMode
	IncludeVelocity bool
	IncludeDistance bool
	Limit           int // 0 lets the service choose
}

// DefaultSettings matches the catalogue service's own defaults.
func DefaultSettings() Settings {
	return Settings{BrightnessMode: NakedEye}
}
