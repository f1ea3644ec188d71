package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPresentableDistance(t *testing.T) {
	tests := []struct {
		meters float64
		want   string
	}{
		{0, "0 m"},
		{12.4, "12 m"},
		{949, "949 m"},
		{950, "0.9 km"},
		{2430, "2.4 km"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, PresentableDistance(tc.meters))
	}
}

func TestPresentableStops(t *testing.T) {
	assert.Equal(t, "1 stop", PresentableStops(1))
	assert.Equal(t, "3 stops", PresentableStops(3))
	assert.Equal(t, "0 stops", PresentableStops(0))
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 4, 8, 0, 30, 0, time.UTC)
	for _, s := range []string{"2024-03-04T08:00:30Z", "2024-03-04 08:00:30", "1709539230"} {
		got, ok := ParseTimestamp(s)
		assert.True(t, ok, s)
		assert.True(t, want.Equal(got), s)
	}
	_, ok := ParseTimestamp("yesterday")
	assert.False(t, ok)
}

func TestIso8601(t *testing.T) {
	assert.Equal(t, "", Iso8601(time.Time{}))
	assert.Equal(t, "2024-03-04T08:00:30Z", Iso8601(time.Date(2024, 3, 4, 10, 0, 30, 0, time.FixedZone("EET", 7200))))
}
