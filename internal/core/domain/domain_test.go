package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  int64
		expected string
	}{
		{0, "0:00"},
		{-5, "0:00"},
		{61, "1:01"},
		{599, "9:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatDuration(tt.seconds), "seconds=%d", tt.seconds)
	}
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "1.5K", FormatCount(1500))
	assert.Equal(t, "1.2M", FormatCount(1_234_567))
	assert.Equal(t, "2.0B", FormatCount(2_000_000_000))

	assert.Equal(t, "1.5K views", StreamItem{Views: 1500}.FormattedViews())
	assert.Equal(t, "12 views", VideoStream{Views: 12}.FormattedViews())
}

func TestStreamItem_VideoID(t *testing.T) {
	item := StreamItem{URL: WatchURL("dQw4w9WgXcQ"), Duration: 212}
	assert.Equal(t, "/watch?v=dQw4w9WgXcQ", item.URL)
	assert.Equal(t, "dQw4w9WgXcQ", item.VideoID())
	assert.Equal(t, "3:32", item.FormattedDuration())
}

func TestValidVideoID(t *testing.T) {
	assert.True(t, ValidVideoID("dQw4w9WgXcQ"))
	assert.True(t, ValidVideoID("a-b_C"))

	for _, id := range []string{"", "../etc", "a/b", `a\b`, "a.b", "a b", strings.Repeat("x", 65)} {
		assert.False(t, ValidVideoID(id), id)
	}
}

func TestStream_FormattedSize(t *testing.T) {
	assert.Equal(t, "Unknown", Stream{}.FormattedSize())
	assert.Equal(t, "512 B", Stream{ContentLength: 512}.FormattedSize())
	assert.Equal(t, "2.0 KB", Stream{ContentLength: 2048}.FormattedSize())
	assert.Equal(t, "1.5 MB", Stream{ContentLength: 1536 * 1024}.FormattedSize())
}

func TestStream_QualityAndResolution(t *testing.T) {
	assert.Equal(t, "720p", Stream{Quality: "720p", Height: 720}.QualityLabel())
	assert.Equal(t, "480p", Stream{Height: 480}.QualityLabel())

	assert.Equal(t, 1080, Stream{Height: 1080, Quality: "720p"}.Resolution())
	assert.Equal(t, 360, Stream{Quality: "360p"}.Resolution())
}

func sampleVideo() VideoStream {
	return VideoStream{
		VideoStreams: []Stream{
			{URL: "360", Quality: "360p"},
			{URL: "1080-adaptive", Quality: "1080p", VideoOnly: true},
			{URL: "720", Quality: "720p"},
			{URL: "480-adaptive", Height: 480, VideoOnly: true},
		},
		AudioStreams: []Stream{
			{URL: "low", Bitrate: 48000},
			{URL: "high", Bitrate: 160000},
			{URL: "mid", Bitrate: 128000},
		},
	}
}

func urls(streams []Stream) []string {
	out := make([]string, 0, len(streams))
	for _, s := range streams {
		out = append(out, s.URL)
	}
	return out
}

func TestVideoStream_StreamSelection(t *testing.T) {
	v := sampleVideo()

	assert.Equal(t, []string{"720", "360"}, urls(v.MuxedStreams()))
	assert.Equal(t, []string{"1080-adaptive", "480-adaptive"}, urls(v.VideoOnlyStreams()))

	best, ok := v.BestAudioStream()
	require.True(t, ok)
	assert.Equal(t, "high", best.URL)

	_, ok = VideoStream{}.BestAudioStream()
	assert.False(t, ok)
}

func TestVideoStream_DownloadStream(t *testing.T) {
	v := sampleVideo()

	s, ok := v.DownloadStream("360p", false)
	require.True(t, ok)
	assert.Equal(t, "360", s.URL)

	s, ok = v.DownloadStream("4320p", false)
	require.True(t, ok)
	assert.Equal(t, "720", s.URL, "unknown quality falls back to the best muxed stream")

	s, ok = v.DownloadStream("", true)
	require.True(t, ok)
	assert.Equal(t, "high", s.URL)

	_, ok = VideoStream{VideoStreams: []Stream{{VideoOnly: true}}}.DownloadStream("", false)
	assert.False(t, ok)
}

func TestHTTPStatusError(t *testing.T) {
	err := NewHTTPStatusError(ProviderPiped, "https://a.example/trending", http.StatusNotFound, "404 Not Found")
	assert.Contains(t, err.Error(), "HTTP 404 Not Found")

	wrapped := fmt.Errorf("fetch: %w", err)
	assert.Equal(t, http.StatusNotFound, StatusCodeOf(wrapped))
	assert.True(t, IsNotFound(wrapped))

	assert.Equal(t, 0, StatusCodeOf(errors.New("dial tcp: refused")))
	assert.False(t, IsNotFound(nil))
}

func TestExhaustedError(t *testing.T) {
	last := NewHTTPStatusError(ProviderInvidious, "https://b.example", http.StatusBadGateway, "502")
	err := NewExhaustedError(4, last)

	assert.True(t, IsExhausted(fmt.Errorf("catalog: %w", err)))
	assert.Equal(t, http.StatusBadGateway, StatusCodeOf(err))
	assert.Contains(t, err.Error(), "after 4 attempts")

	empty := NewExhaustedError(0, nil)
	assert.ErrorIs(t, empty, ErrAllInstancesExhausted)
	assert.False(t, IsExhausted(last))
}
