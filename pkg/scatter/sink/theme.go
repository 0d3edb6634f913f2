package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// Theme holds the colors shared by every sink.
type Theme struct {
	Name       string
	Background string
	Panel      string // legend and tooltip fill
	Grid       string
	Text       string
	MutedText  string
	Font       string
	FontSize   float64
}

// DarkTheme matches the dark dashboard the chart usually sits in.
func DarkTheme() Theme {
	return Theme{
		Name:       "dark",
		Background: "#16181d",
		Panel:      "#23262e",
		Grid:       "#2f333c",
		Text:       "#e8eaed",
		MutedText:  "#8b9099",
		Font:       "Inter, Helvetica, Arial, sans-serif",
		FontSize:   12,
	}
}

// LightTheme is meant for print.
func LightTheme() Theme {
	return Theme{
		Name:       "light",
		Background: "#ffffff",
		Panel:      "#f3f4f6",
		Grid:       "#e1e4e8",
		Text:       "#1f2328",
		MutedText:  "#656d76",
		Font:       "Inter, Helvetica, Arial, sans-serif",
		FontSize:   12,
	}
}

// ThemeByName returns the named theme; unknown names get the dark theme.
func ThemeByName(name string) (Theme, bool) {
	switch strings.ToLower(name) {
	case "", "dark":
		return DarkTheme(), true
	case "light":
		return LightTheme(), true
	default:
		return DarkTheme(), false
	}
}

// EscapeXML escapes s for use in SVG text and attributes.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func num(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
