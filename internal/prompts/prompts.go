// ABOUTME: Prompt record definitions and built-in defaults
// ABOUTME: Maps weighted text descriptors to MIDI CCs and theme colors
package prompts

import (
	"fmt"

	"github.com/promptdj/promptdj-go/internal/protocol"
)

// Source records where a prompt came from.
type Source string

const (
	SourcePreset Source = "preset"
	SourceUser   Source = "user"
)

// Prompt is one steering descriptor on the control surface.
type Prompt struct {
	ID       string  `json:"promptId"`
	Text     string  `json:"text"`
	Weight   float64 `json:"weight"`
	CC       int     `json:"cc"`
	Color    string  `json:"color"`
	Category string  `json:"category"`
	Source   Source  `json:"source"`
}

// MaxWeight is the top of the knob range; MIDI CC 127 maps here.
const MaxWeight = 2.0

// theme is the current palette, keyed by category with a fallback.
var theme = map[string]string{
	"genre":      "#9900ff",
	"instrument": "#2af6de",
	"mood":       "#ffdd28",
	"rhythm":     "#ff25f6",
}

const themeFallback = "#5200ff"

// ColorFor derives a prompt's color from the current theme. Stored colors
// are never trusted; the theme always wins.
func ColorFor(category string) string {
	if c, ok := theme[category]; ok {
		return c
	}
	return themeFallback
}

// defaultSpecs lists the built-in control surface.
var defaultSpecs = []struct {
	text     string
	category string
}{
	{"Bossa Nova", "genre"},
	{"Chillwave", "genre"},
	{"Drum and Bass", "genre"},
	{"Post Punk", "genre"},
	{"Shoegaze", "genre"},
	{"Funk", "genre"},
	{"Chiptune", "genre"},
	{"Lush Strings", "instrument"},
	{"Sparkling Arpeggios", "instrument"},
	{"Staccato Rhythms", "rhythm"},
	{"Punchy Kick", "rhythm"},
	{"Dubstep", "genre"},
	{"K Pop", "genre"},
	{"Neo Soul", "genre"},
	{"Trip Hop", "genre"},
	{"Thrash", "genre"},
}

// Defaults returns the built-in prompt set. IDs are stable across runs so
// persisted overrides can be matched back up.
func Defaults() []Prompt {
	out := make([]Prompt, len(defaultSpecs))
	for i, spec := range defaultSpecs {
		weight := 0.0
		if i == 0 {
			weight = 1.0 // one knob up so a fresh session makes sound
		}
		out[i] = Prompt{
			ID:       presetID(i),
			Text:     spec.text,
			Weight:   weight,
			CC:       i,
			Color:    ColorFor(spec.category),
			Category: spec.category,
			Source:   SourcePreset,
		}
	}
	return out
}

func presetID(i int) string {
	return fmt.Sprintf("preset-%02d", i)
}

// ToWeighted converts prompts to the wire form, keeping only those with
// non-zero weight.
func ToWeighted(list []Prompt) []protocol.WeightedPrompt {
	out := make([]protocol.WeightedPrompt, 0, len(list))
	for _, p := range list {
		if p.Weight > 0 {
			out = append(out, protocol.WeightedPrompt{Text: p.Text, Weight: p.Weight})
		}
	}
	return out
}
