package queryconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitradar.dev/radar/model"
	"transitradar.dev/radar/search"
)

func TestNewFilter_EmptyModesAllowsEverything(t *testing.T) {
	filter, err := NewFilter(nil, 0, 0, time.Time{})
	require.NoError(t, err)

	assert.True(t, filter.Modes.Allows(model.ModeBus))
	assert.True(t, filter.Modes.Allows(model.ModeTram))
}

func TestNewFilter_AppliesDefaultsForNonPositiveInputs(t *testing.T) {
	filter, err := NewFilter(nil, 0, 0, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, DefaultDurationMinutes, filter.DurationMinutes)
	assert.Equal(t, search.DefaultTransferCap, filter.TransferCapSeconds)
}

func TestNewFilter_ParsesKnownModeAliases(t *testing.T) {
	filter, err := NewFilter([]string{"ubahn", "Boat"}, 30, 120, time.Time{})
	require.NoError(t, err)

	assert.True(t, filter.Modes.Allows(model.ModeSubwayMetro))
	assert.True(t, filter.Modes.Allows(model.ModeFerry))
	assert.False(t, filter.Modes.Allows(model.ModeBus))
	assert.Equal(t, 30, filter.DurationMinutes)
	assert.Equal(t, 120, filter.TransferCapSeconds)
}

func TestNewFilter_RejectsUnknownMode(t *testing.T) {
	_, err := NewFilter([]string{"hovercraft"}, 0, 0, time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
