package shell

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Prompt is the label printed before each read, optionally colored.
type Prompt struct {
	Label string
	Color colorful.Color
	// plain suppresses color codes even on interactive channels.
	plain bool
}

// DefaultPromptLabel is shown when no machine context is active.
const DefaultPromptLabel = "(monitor) "

// defaultPromptColor is a muted steel blue; readable on dark and light
// backgrounds.
var defaultPromptColor = colorful.Color{R: 0.39, G: 0.58, B: 0.93}

// ContextPromptColor is the highlight used for an active machine context.
var ContextPromptColor = colorful.Color{R: 1.0, G: 0.27, B: 0.0}

// NewPrompt creates a colored prompt with the given label.
func NewPrompt(label string, color colorful.Color) *Prompt {
	return &Prompt{Label: label, Color: color}
}

// DefaultPrompt returns the prompt shown without an active context.
func DefaultPrompt() *Prompt {
	return NewPrompt(DefaultPromptLabel, defaultPromptColor)
}

// render returns the byte sequence for the prompt. Interactive channels
// get a truecolor SGR wrapping; non-interactive ones get the bare label.
func (p *Prompt) render(interactive bool) string {
	if !interactive || p.plain {
		return p.Label
	}
	r, g, b := p.Color.Clamped().RGB255()
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm%s\x1b[0m", r, g, b, p.Label)
}
