package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/docker/go-units"

	"github.com/freytube/freytube/internal/util"
)

// The catalog model follows Piped's wire format, so primary responses decode
// straight into it and Invidious responses are mapped onto it.

const (
	watchPrefix      = "/watch?v="
	maxVideoIDLength = 64
)

// StreamItem is a video entry in trending, search, channel and related lists.
type StreamItem struct {
	URL              string `json:"url"`
	Type             string `json:"type"`
	Title            string `json:"title"`
	Thumbnail        string `json:"thumbnail"`
	UploaderName     string `json:"uploaderName"`
	UploaderURL      string `json:"uploaderUrl"`
	UploaderAvatar   string `json:"uploaderAvatar"`
	UploadedDate     string `json:"uploadedDate"`
	ShortDescription string `json:"shortDescription,omitempty"`
	Duration         int64  `json:"duration"`
	Views            int64  `json:"views"`
	Uploaded         int64  `json:"uploaded"`
	UploaderVerified bool   `json:"uploaderVerified"`
	IsShort          bool   `json:"isShort"`
}

// VideoID extracts the video identifier from the item's watch URL.
func (s StreamItem) VideoID() string {
	return strings.TrimPrefix(s.URL, watchPrefix)
}

// FormattedDuration renders the duration as h:mm:ss or m:ss.
func (s StreamItem) FormattedDuration() string {
	return FormatDuration(s.Duration)
}

func (s StreamItem) FormattedViews() string {
	return FormatCount(s.Views) + " views"
}

// ValidVideoID reports whether id uses only the characters YouTube issues in
// video ids, which also keeps it safe to use as a file name.
func ValidVideoID(id string) bool {
	if id == "" || len(id) > maxVideoIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// WatchURL builds the canonical relative watch URL for a video.
func WatchURL(videoID string) string {
	return watchPrefix + videoID
}

// VideoStream is the full detail of one video, including playable streams.
type VideoStream struct {
	Title                   string         `json:"title"`
	Description             string         `json:"description"`
	UploadDate              string         `json:"uploadDate"`
	Uploader                string         `json:"uploader"`
	UploaderURL             string         `json:"uploaderUrl"`
	UploaderAvatar          string         `json:"uploaderAvatar"`
	ThumbnailURL            string         `json:"thumbnailUrl"`
	HLS                     string         `json:"hls,omitempty"`
	Dash                    string         `json:"dash,omitempty"`
	Category                string         `json:"category"`
	ProxyURL                string         `json:"proxyUrl"`
	AudioStreams            []Stream       `json:"audioStreams"`
	VideoStreams            []Stream       `json:"videoStreams"`
	RelatedStreams          []StreamItem   `json:"relatedStreams"`
	Subtitles               []Subtitle     `json:"subtitles"`
	Chapters                []Chapter      `json:"chapters"`
	PreviewFrames           []PreviewFrame `json:"previewFrames"`
	Duration                int64          `json:"duration"`
	Views                   int64          `json:"views"`
	Likes                   int64          `json:"likes"`
	Dislikes                int64          `json:"dislikes"`
	UploaderSubscriberCount int64          `json:"uploaderSubscriberCount"`
	UploaderVerified        bool           `json:"uploaderVerified"`
	Livestream              bool           `json:"livestream"`
}

// MuxedStreams returns streams carrying both audio and video, best resolution first.
func (v VideoStream) MuxedStreams() []Stream {
	return v.filterVideo(false)
}

// VideoOnlyStreams returns adaptive video streams that need a separate audio track.
func (v VideoStream) VideoOnlyStreams() []Stream {
	return v.filterVideo(true)
}

func (v VideoStream) filterVideo(videoOnly bool) []Stream {
	out := make([]Stream, 0, len(v.VideoStreams))
	for _, s := range v.VideoStreams {
		if s.VideoOnly == videoOnly {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Resolution() > out[j].Resolution()
	})
	return out
}

// BestAudioStream returns the audio stream with the highest bitrate.
func (v VideoStream) BestAudioStream() (Stream, bool) {
	if len(v.AudioStreams) == 0 {
		return Stream{}, false
	}
	best := v.AudioStreams[0]
	for _, s := range v.AudioStreams[1:] {
		if s.Bitrate > best.Bitrate {
			best = s
		}
	}
	return best, true
}

func (v VideoStream) FormattedViews() string {
	return FormatCount(v.Views) + " views"
}

// Stream is one playable media stream.
type Stream struct {
	URL           string `json:"url"`
	Format        string `json:"format"`
	Quality       string `json:"quality,omitempty"`
	MimeType      string `json:"mimeType"`
	Codec         string `json:"codec,omitempty"`
	Bitrate       int    `json:"bitrate,omitempty"`
	InitStart     int    `json:"initStart,omitempty"`
	InitEnd       int    `json:"initEnd,omitempty"`
	IndexStart    int    `json:"indexStart,omitempty"`
	IndexEnd      int    `json:"indexEnd,omitempty"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	FPS           int    `json:"fps,omitempty"`
	ContentLength int64  `json:"contentLength,omitempty"`
	VideoOnly     bool   `json:"videoOnly"`
}

// QualityLabel is the declared quality, or the height when none was given.
func (s Stream) QualityLabel() string {
	if s.Quality != "" {
		return s.Quality
	}
	return fmt.Sprintf("%dp", s.Height)
}

// Resolution is the vertical resolution taken from the height or the quality label.
func (s Stream) Resolution() int {
	if s.Height > 0 {
		return s.Height
	}
	return util.ParseIntLenient(s.Quality)
}

// FormattedSize renders the content length, or "Unknown" when it is not known.
func (s Stream) FormattedSize() string {
	if s.ContentLength <= 0 {
		return "Unknown"
	}
	if s.ContentLength < 1024 {
		return fmt.Sprintf("%d B", s.ContentLength)
	}
	return units.CustomSize("%.1f %s", float64(s.ContentLength), 1024.0, []string{"B", "KB", "MB", "GB", "TB"})
}

type Subtitle struct {
	URL           string `json:"url"`
	MimeType      string `json:"mimeType"`
	Name          string `json:"name"`
	Code          string `json:"code"`
	AutoGenerated bool   `json:"autoGenerated"`
}

type Chapter struct {
	Title string `json:"title"`
	Image string `json:"image"`
	Start int64  `json:"start"`
}

type PreviewFrame struct {
	URLs             []string `json:"urls"`
	FrameWidth       int      `json:"frameWidth"`
	FrameHeight      int      `json:"frameHeight"`
	TotalCount       int      `json:"totalCount"`
	DurationPerFrame int64    `json:"durationPerFrame"`
	FramesPerPageX   int      `json:"framesPerPageX"`
	FramesPerPageY   int      `json:"framesPerPageY"`
}

// SearchResponse is one page of search results. NextPage is empty on the last page.
type SearchResponse struct {
	Items      []StreamItem `json:"items"`
	NextPage   string       `json:"nextpage,omitempty"`
	Suggestion string       `json:"suggestion,omitempty"`
	Corrected  bool         `json:"corrected"`
}

type Channel struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	AvatarURL       string       `json:"avatarUrl"`
	BannerURL       string       `json:"bannerUrl"`
	Description     string       `json:"description"`
	NextPage        string       `json:"nextpage,omitempty"`
	RelatedStreams  []StreamItem `json:"relatedStreams"`
	SubscriberCount int64        `json:"subscriberCount"`
	Verified        bool         `json:"verified"`
}

type CommentsResponse struct {
	Comments []Comment `json:"comments"`
	NextPage string    `json:"nextpage,omitempty"`
	Disabled bool      `json:"disabled"`
}

type Comment struct {
	Author         string `json:"author"`
	Thumbnail      string `json:"thumbnail"`
	CommentID      string `json:"commentId"`
	CommentText    string `json:"commentText"`
	CommentedTime  string `json:"commentedTime"`
	CommentorURL   string `json:"commentorUrl"`
	RepliesPage    string `json:"repliesPage,omitempty"`
	LikeCount      int64  `json:"likeCount"`
	ReplyCount     int    `json:"replyCount"`
	Hearted        bool   `json:"hearted"`
	Pinned         bool   `json:"pinned"`
	Verified       bool   `json:"verified"`
	CreatorReplied bool   `json:"creatorReplied"`
}

// FormatDuration renders seconds as h:mm:ss, or m:ss under an hour.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// FormatCount abbreviates large counts: 1.2K, 3.4M, 1.0B.
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// DownloadStream picks what to fetch for an offline copy: the best audio track
// when audioOnly, otherwise the muxed stream matching quality or the best
// muxed stream available.
func (v VideoStream) DownloadStream(quality string, audioOnly bool) (Stream, bool) {
	if audioOnly {
		return v.BestAudioStream()
	}
	muxed := v.MuxedStreams()
	if len(muxed) == 0 {
		return Stream{}, false
	}
	for _, s := range muxed {
		if quality != "" && s.QualityLabel() == quality {
			return s, true
		}
	}
	return muxed[0], true
}
