package display

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("180")).
			Padding(0, 1).
			MarginBottom(1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("222"))
	bodyStyle  = lipgloss.NewStyle().Italic(true)
	metaStyle  = lipgloss.NewStyle().Faint(true)
)

// RenderCards draws entries as bordered cards of the given width. A card's
// rotation becomes a small left offset.
func RenderCards(entries []Entry, width int) string {
	if len(entries) == 0 {
		return metaStyle.Render("No reflections yet.")
	}
	if width < 20 {
		width = 20
	}

	cards := make([]string, 0, len(entries))
	for _, e := range entries {
		var b strings.Builder
		b.WriteString(titleStyle.Render(e.Title))
		b.WriteString("\n\n")
		b.WriteString(bodyStyle.Render(strings.Join(e.Lines, "\n")))
		b.WriteString("\n\n")
		meta := e.Neighborhood + " · " + e.Date
		if e.PhotoURL != nil {
			meta += " · photo"
		}
		b.WriteString(metaStyle.Render(meta))

		cards = append(cards, cardStyle.
			Width(width).
			MarginLeft(offset(e.Rotation)).
			Render(b.String()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func offset(rotation float64) int {
	return int(math.Round(2 + rotation*2))
}
