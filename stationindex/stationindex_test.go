package stationindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitradar.dev/radar/index"
	"transitradar.dev/radar/model"
)

func buildStations(t *testing.T, names ...string) *Index {
	t.Helper()
	stops := make([]model.Stop, len(names))
	for i, name := range names {
		stops[i] = model.Stop{ID: name, Name: name}
	}
	idx, err := index.Build(index.BuildInput{Stops: stops})
	require.NoError(t, err)
	return Build(idx)
}

func TestFold_StripsDiacriticsAndLowercases(t *testing.T) {
	assert.Equal(t, "munchner freiheit", Fold("Münchner Freiheit"))
}

func TestSearch_MatchesAcrossFoldedDiacritics(t *testing.T) {
	si := buildStations(t, "Münchner Freiheit", "Marienplatz")

	matches := si.Search("munchner", 0)
	require.Len(t, matches, 1)
	assert.Equal(t, "Münchner Freiheit", matches[0].Name)
}

func TestSearch_RequiresIntersectionOfAllQueryTokens(t *testing.T) {
	si := buildStations(t, "Central Station", "Central Park", "North Station")

	matches := si.Search("central station", 0)
	require.Len(t, matches, 1)
	assert.Equal(t, "Central Station", matches[0].Name)
}

func TestSearch_RanksShorterNameAboveLongerOnTiedExactCount(t *testing.T) {
	si := buildStations(t, "Park", "Park Avenue Terminal")

	matches := si.Search("park", 0)
	require.Len(t, matches, 2)
	assert.Equal(t, "Park", matches[0].Name)
}

func TestSearch_NoQueryTokensReturnsNil(t *testing.T) {
	si := buildStations(t, "Central Station")
	assert.Nil(t, si.Search("   ", 0))
}

func TestSearch_RespectsLimit(t *testing.T) {
	si := buildStations(t, "Alpha Station", "Alpha Park", "Alpha Plaza")
	matches := si.Search("alpha", 1)
	assert.Len(t, matches, 1)
}

func TestSearch_NoMatchReturnsEmpty(t *testing.T) {
	si := buildStations(t, "Central Station")
	assert.Empty(t, si.Search("nowhere", 0))
}
