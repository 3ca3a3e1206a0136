package display

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/reflections-backend/internal/form"
	"github.com/AnshRaj112/reflections-backend/internal/models"
)

func strPtr(s string) *string { return &s }

func sample() []models.Reflection {
	return []models.Reflection{
		{ID: "1", Neighborhood: "King West", Reflection: "one"},
		{ID: "2", Neighborhood: "Annex", Reflection: "two"},
		{ID: "3", Neighborhood: "king west", Reflection: "three"},
		{ID: "4", Neighborhood: "King West", Reflection: "four"},
		{ID: "5", Neighborhood: "Leslieville", Reflection: "five"},
	}
}

func TestFromReflection(t *testing.T) {
	r := models.Reflection{
		ID:           "abc",
		Title:        strPtr("Morning Light"),
		Reflection:   "  First line \n\n second line\n   \n",
		Neighborhood: "Annex",
		CreatedAt:    time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC),
	}

	e := FromReflection(r, 0, nil)
	assert.Equal(t, "Morning Light", e.Title)
	assert.Equal(t, []string{"First line", "second line"}, e.Lines)
	assert.Equal(t, "03.09.2025", e.Date)
	assert.Equal(t, -1.0, e.Rotation)

	r.Title = nil
	assert.Equal(t, Untitled, FromReflection(r, 0, nil).Title)
	r.Title = strPtr("   ")
	assert.Equal(t, Untitled, FromReflection(r, 0, nil).Title)
}

func TestFormatDateUsesLocation(t *testing.T) {
	ts := time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC)
	toronto := time.FixedZone("EST", -5*3600)
	assert.Equal(t, "01.01.2025", FormatDate(ts, nil))
	assert.Equal(t, "12.31.2024", FormatDate(ts, toronto))
	assert.Equal(t, "—", FormatDate(time.Time{}, nil))
}

func TestEntriesCycleRotations(t *testing.T) {
	list := make([]models.Reflection, 7)
	entries := Entries(list, nil)
	require.Len(t, entries, 7)
	assert.Equal(t, []float64{-1, 0.5, 1, -0.5, 0.75, -1, 0.5}, []float64{
		entries[0].Rotation, entries[1].Rotation, entries[2].Rotation, entries[3].Rotation,
		entries[4].Rotation, entries[5].Rotation, entries[6].Rotation,
	})
}

func TestNeighborhoodsUniqueSorted(t *testing.T) {
	assert.Equal(t, []string{"Annex", "King West", "Leslieville", "king west"}, Neighborhoods(sample()))
	assert.Empty(t, Neighborhoods(nil))
}

func TestFilterByNeighborhood(t *testing.T) {
	got := FilterByNeighborhood(sample(), "King West")
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "4", got[1].ID)

	assert.Len(t, FilterByNeighborhood(sample(), AllNeighborhoods), 5)
	assert.Len(t, FilterByNeighborhood(sample(), ""), 5)
	assert.Empty(t, FilterByNeighborhood(sample(), "Nowhere"))
}

func TestShuffleIsPermutation(t *testing.T) {
	in := sample()
	out := Shuffle(in, rand.New(rand.NewPCG(1, 2)))

	require.Len(t, out, len(in))
	assert.ElementsMatch(t, in, out)
	assert.Equal(t, "1", in[0].ID, "input must not be reordered")

	again := Shuffle(in, rand.New(rand.NewPCG(1, 2)))
	assert.Equal(t, out, again)
}

func TestRenderCards(t *testing.T) {
	entries := []Entry{
		{Title: "Quiet", Lines: []string{"rain"}, Neighborhood: "Annex", Date: "03.09.2025", Rotation: -1},
		{Title: Untitled, Lines: []string{"sun"}, Neighborhood: "Leslieville", Date: "03.10.2025", Rotation: 1, PhotoURL: strPtr("x")},
	}
	out := RenderCards(entries, 40)
	for _, want := range []string{"Quiet", "rain", "Annex", "03.09.2025", Untitled, "Leslieville", "photo"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, RenderCards(nil, 40), "No reflections yet.")
	assert.Equal(t, 0, offset(-1))
	assert.Equal(t, 4, offset(1))
}

func TestClientFetch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, form.ReflectionsPath, r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    []models.Reflection{{ID: "a", Neighborhood: "King West"}},
		})
	}))
	defer srv.Close()

	list, err := NewClient(srv.URL, nil).Fetch(context.Background(), models.ReflectionFilter{Neighborhood: "King West", FeaturedOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "featured=true&neighborhood=King+West", gotQuery)
}

func TestClientFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"retrieval_failed","message":"Failed to fetch reflections","details":"record store unavailable"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL+"/", nil).Fetch(context.Background(), models.ReflectionFilter{})
	var serverErr *form.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "retrieval_failed", serverErr.Kind)
	assert.True(t, strings.HasSuffix(err.Error(), "record store unavailable"))
}
