// Package display renders the indicator status as a coloured glyph on a text
// terminal, such as a small HDMI/SPI panel running a console or an SSH session.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/sweeney/onair-agent/internal/logic"
)

// clearScreen moves the cursor home and erases the terminal.
const clearScreen = "\x1b[H\x1b[2J"

// Glyph is the text and colour shown for a status.
type Glyph struct {
	Text  string
	Attrs []color.Attribute
}

var glyphs = map[logic.Status]Glyph{
	logic.StatusOn:         {Text: " ONAIR ", Attrs: []color.Attribute{color.FgRed, color.Bold}},
	logic.StatusOff:        {Text: "OFFLINE", Attrs: []color.Attribute{color.FgGreen}},
	logic.StatusFetchError: {Text: "Connect Err", Attrs: []color.Attribute{color.FgYellow}},
	logic.StatusParseError: {Text: "Bad Reply", Attrs: []color.Attribute{color.FgMagenta}},
	logic.StatusLinkDown:   {Text: "WiFi Error", Attrs: []color.Attribute{color.FgBlue}},
}

// GlyphFor returns the glyph for s. Unknown statuses get a plain "?" glyph.
func GlyphFor(s logic.Status) Glyph {
	if g, ok := glyphs[s]; ok {
		return g
	}
	return Glyph{Text: "?"}
}

// Console writes glyphs to a terminal.
type Console struct {
	w      io.Writer
	colour bool
	clear  bool
}

// NewConsole creates a display writing to w. With colour false escape codes
// for colour are omitted; with clear false the screen is not wiped first.
func NewConsole(w io.Writer, colour, clear bool) *Console {
	return &Console{w: w, colour: colour, clear: clear}
}

// Render implements logic.Sink.
func (c *Console) Render(s logic.Status) error {
	g := GlyphFor(s)

	col := color.New(g.Attrs...)
	if c.colour {
		col.EnableColor()
	} else {
		col.DisableColor()
	}

	var b strings.Builder
	if c.clear {
		b.WriteString(clearScreen)
	}
	b.WriteString("\n\n")
	b.WriteString(col.Sprint(g.Text))
	b.WriteString("\n")

	if _, err := io.WriteString(c.w, b.String()); err != nil {
		return fmt.Errorf("display write: %w", err)
	}
	return nil
}
