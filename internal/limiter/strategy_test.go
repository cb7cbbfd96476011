package limiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindow_AnchorIsEpochAligned(t *testing.T) {
	w := fixedWindow{}

	var tests = []struct {
		name   string
		now    time.Time
		window time.Duration
		want   time.Time
	}{
		{
			name:   "mid bucket floors to the minute",
			now:    time.Date(2022, 5, 10, 9, 15, 30, 0, time.UTC),
			window: time.Minute,
			want:   time.Date(2022, 5, 10, 9, 15, 0, 0, time.UTC),
		},
		{
			name:   "boundary instant belongs to the new bucket",
			now:    time.Date(2022, 5, 10, 9, 16, 0, 0, time.UTC),
			window: time.Minute,
			want:   time.Date(2022, 5, 10, 9, 16, 0, 0, time.UTC),
		},
		{
			name:   "odd windows floor against the unix epoch",
			now:    time.Unix(1000000003, 500),
			window: 7 * time.Second,
			want:   time.Unix(1000000001, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := w.anchor(tt.now, tt.window)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestFixedWindow_RetryAfterTracksBoundary(t *testing.T) {
	w := fixedWindow{}
	now := time.Date(2022, 5, 10, 9, 15, 45, 0, time.UTC)

	assert.Equal(t, 15*time.Second, w.retryAfter(now, time.Minute))
	assert.True(t, w.resetTime(now, time.Minute).Equal(time.Date(2022, 5, 10, 9, 16, 0, 0, time.UTC)))

	start, end := w.countRange(now, time.Minute)
	assert.True(t, start.Equal(time.Date(2022, 5, 10, 9, 15, 0, 0, time.UTC)))
	assert.True(t, end.Equal(time.Date(2022, 5, 10, 9, 16, 0, 0, time.UTC)))
}

func TestSlidingWindow_TrailsNow(t *testing.T) {
	w := slidingWindow{}
	now := time.Date(2022, 5, 10, 9, 15, 45, 0, time.UTC)

	start, end := w.countRange(now, time.Minute)
	assert.True(t, start.Equal(now.Add(-time.Minute)))
	assert.True(t, end.Equal(now))

	// The deny hint is the full window, not the age of the oldest
	// counted event.
	assert.Equal(t, time.Minute, w.retryAfter(now, time.Minute))
	assert.True(t, w.resetTime(now, time.Minute).Equal(now.Add(time.Minute)))
}

func TestWindowFreshness(t *testing.T) {
	now := time.Date(2022, 5, 10, 9, 15, 30, 0, time.UTC)

	fixed := fixedWindow{}
	current := fixed.anchor(now, time.Minute)
	assert.True(t, fixed.fresh(current, current))
	assert.False(t, fixed.fresh(current.Add(-time.Minute), current), "a rolled-over bucket is stale")

	sliding := slidingWindow{}
	assert.True(t, sliding.fresh(now.Add(-90*time.Second), now.Add(-time.Minute)),
		"any live sliding entry stands in for the store count")
}

func TestStrategy_WindowSelection(t *testing.T) {
	_, ok := Sliding.window()
	require.True(t, ok)
	_, ok = Fixed.window()
	require.True(t, ok)
	_, ok = Strategy("banana").window()
	require.False(t, ok)
}
