// Package display turns retrieved reflections into presentation entries:
// featured cards, the neighborhood picker and shuffled explore lists.
package display

import (
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/AnshRaj112/reflections-backend/internal/models"
)

// Untitled is shown for reflections without a title.
const Untitled = "Untitled"

// AllNeighborhoods selects every neighborhood in FilterByNeighborhood.
const AllNeighborhoods = "all"

// rotations tilt consecutive cards, in degrees.
var rotations = []float64{-1, 0.5, 1, -0.5, 0.75}

// Entry is a reflection prepared for display.
type Entry struct {
	ID           string
	Title        string
	Lines        []string
	Neighborhood string
	Date         string
	Rotation     float64
	PhotoURL     *string
}

// FromReflection builds the entry at position index. Dates are rendered as
// MM.DD.YYYY in loc; a nil loc means UTC.
func FromReflection(r models.Reflection, index int, loc *time.Location) Entry {
	title := Untitled
	if r.Title != nil && strings.TrimSpace(*r.Title) != "" {
		title = *r.Title
	}
	return Entry{
		ID:           r.ID,
		Title:        title,
		Lines:        Lines(r.Reflection),
		Neighborhood: r.Neighborhood,
		Date:         FormatDate(r.CreatedAt, loc),
		Rotation:     rotations[index%len(rotations)],
		PhotoURL:     r.PhotoURL,
	}
}

// Entries converts a whole listing, keeping its order.
func Entries(list []models.Reflection, loc *time.Location) []Entry {
	out := make([]Entry, 0, len(list))
	for i, r := range list {
		out = append(out, FromReflection(r, i, loc))
	}
	return out
}

// Lines splits text on newlines and drops blank lines.
func Lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// FormatDate renders t as MM.DD.YYYY, or "—" for a zero time.
func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "—"
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("01.02.2006")
}

// Neighborhoods returns the distinct neighborhoods, sorted.
func Neighborhoods(list []models.Reflection) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range list {
		if !seen[r.Neighborhood] {
			seen[r.Neighborhood] = true
			out = append(out, r.Neighborhood)
		}
	}
	sort.Strings(out)
	return out
}

// FilterByNeighborhood keeps exact matches. "" or AllNeighborhoods keeps everything.
func FilterByNeighborhood(list []models.Reflection, neighborhood string) []models.Reflection {
	out := make([]models.Reflection, 0, len(list))
	for _, r := range list {
		if neighborhood == "" || neighborhood == AllNeighborhoods || r.Neighborhood == neighborhood {
			out = append(out, r)
		}
	}
	return out
}

// Shuffle returns a shuffled copy of list.
func Shuffle(list []models.Reflection, rng *rand.Rand) []models.Reflection {
	out := make([]models.Reflection, len(list))
	copy(out, list)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
