package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeWithOffset(t *testing.T) {
	withOffset, err := ParseTimeWithOffset("2026-05-02T13:45:00+02:00", "")
	require.NoError(t, err)
	assert.Equal(t, 11, withOffset.UTC().Hour())

	local, err := ParseTimeWithOffset("2026-05-02T13:45:00", "Europe/Rome")
	require.NoError(t, err)
	assert.Equal(t, 13, local.Hour())
	assert.Equal(t, "Europe/Rome", local.Location().String())

	_, err = ParseTimeWithOffset("next tuesday", "")
	assert.Error(t, err)
}

func TestFormatDisplay(t *testing.T) {
	assert.Equal(t, "1:45 PM on Sat, May 02", FormatDisplay("2026-05-02T13:45:00", "MXP"))
	assert.Equal(t, "1:45 PM on Sat, May 02", FormatDisplay("2026-05-02T11:45:00Z", "MXP"))
	assert.Equal(t, "tomorrow", FormatDisplay("tomorrow", "MXP"))
	assert.Equal(t, "", FormatDisplay("", "MXP"))
}

func TestGap(t *testing.T) {
	gap, ok := Gap("2026-05-02T09:10:00", "2026-05-02T11:40:00")
	assert.True(t, ok)
	assert.Equal(t, 150*time.Minute, gap)

	_, ok = Gap("", "2026-05-02T11:40:00")
	assert.False(t, ok)

	_, ok = Gap("2026-05-02T09:10:00", "garbage")
	assert.False(t, ok)
}

func TestGetTimezoneByAirport(t *testing.T) {
	assert.Equal(t, "Asia/Kolkata", GetTimezoneByAirport("hyd"))
	assert.Equal(t, "UTC", GetTimezoneByAirport("XXX"))
	assert.Equal(t, time.UTC, GetLocationByAirport("XXX"))
}
