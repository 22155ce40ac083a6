package client

import "strings"

// Invidious wire records. Only the fields the mapper reads are declared;
// every field is optional and decodes to its zero value when missing.

type InvidiousThumbnail struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

type InvidiousVideoItem struct {
	Type            string               `json:"type"`
	Title           string               `json:"title"`
	VideoID         string               `json:"videoId"`
	Author          string               `json:"author"`
	AuthorID        string               `json:"authorId"`
	AuthorURL       string               `json:"authorUrl"`
	Description     string               `json:"description"`
	PublishedText   string               `json:"publishedText"`
	VideoThumbnails []InvidiousThumbnail `json:"videoThumbnails"`
	ViewCount       int64                `json:"viewCount"`
	Published       int64                `json:"published"`
	LengthSeconds   int64                `json:"lengthSeconds"`
	LiveNow         bool                 `json:"liveNow"`
	IsUpcoming      bool                 `json:"isUpcoming"`
	AuthorVerified  bool                 `json:"authorVerified"`
}

type InvidiousVideoDetail struct {
	Title             string                    `json:"title"`
	VideoID           string                    `json:"videoId"`
	Description       string                    `json:"description"`
	PublishedText     string                    `json:"publishedText"`
	Author            string                    `json:"author"`
	AuthorID          string                    `json:"authorId"`
	AuthorURL         string                    `json:"authorUrl"`
	HLSURL            string                    `json:"hlsUrl"`
	DashURL           string                    `json:"dashUrl"`
	Genre             string                    `json:"genre"`
	AuthorThumbnails  []InvidiousThumbnail      `json:"authorThumbnails"`
	VideoThumbnails   []InvidiousThumbnail      `json:"videoThumbnails"`
	AdaptiveFormats   []InvidiousAdaptiveFormat `json:"adaptiveFormats"`
	FormatStreams     []InvidiousFormatStream   `json:"formatStreams"`
	RecommendedVideos []InvidiousVideoItem      `json:"recommendedVideos"`
	Published         int64                     `json:"published"`
	ViewCount         int64                     `json:"viewCount"`
	LikeCount         int64                     `json:"likeCount"`
	DislikeCount      int64                     `json:"dislikeCount"`
	LengthSeconds     int64                     `json:"lengthSeconds"`
	SubCount          int64                     `json:"subCount"`
	LiveNow           bool                      `json:"liveNow"`
	AuthorVerified    bool                      `json:"authorVerified"`
}

// InvidiousAdaptiveFormat is a separate audio or video stream. Invidious sends
// bitrate and clen as strings.
type InvidiousAdaptiveFormat struct {
	URL          string `json:"url"`
	Itag         string `json:"itag"`
	Type         string `json:"type"`
	Bitrate      string `json:"bitrate"`
	Clen         string `json:"clen"`
	Encoding     string `json:"encoding"`
	QualityLabel string `json:"qualityLabel"`
	Resolution   string `json:"resolution"`
	Container    string `json:"container"`
	AudioQuality string `json:"audioQuality"`
	FPS          int    `json:"fps"`
}

func (f InvidiousAdaptiveFormat) IsAudio() bool {
	return strings.HasPrefix(f.Type, "audio/")
}

func (f InvidiousAdaptiveFormat) IsVideo() bool {
	return strings.HasPrefix(f.Type, "video/")
}

// InvidiousFormatStream is a progressive stream carrying audio and video
type InvidiousFormatStream struct {
	URL          string `json:"url"`
	Itag         string `json:"itag"`
	Type         string `json:"type"`
	Quality      string `json:"quality"`
	QualityLabel string `json:"qualityLabel"`
	Container    string `json:"container"`
	Encoding     string `json:"encoding"`
	Resolution   string `json:"resolution"`
	Size         string `json:"size"`
	FPS          int    `json:"fps"`
}

type InvidiousSuggestions struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

type InvidiousCommentsResponse struct {
	Continuation string             `json:"continuation"`
	Comments     []InvidiousComment `json:"comments"`
	CommentCount int                `json:"commentCount"`
}

type InvidiousComment struct {
	// CreatorHeart is an object when the creator hearted the comment
	CreatorHeart         any                      `json:"creatorHeart"`
	Replies              *InvidiousCommentReplies `json:"replies"`
	Author               string                   `json:"author"`
	AuthorID             string                   `json:"authorId"`
	AuthorURL            string                   `json:"authorUrl"`
	Content              string                   `json:"content"`
	ContentHTML          string                   `json:"contentHtml"`
	PublishedText        string                   `json:"publishedText"`
	CommentID            string                   `json:"commentId"`
	AuthorThumbnails     []InvidiousThumbnail     `json:"authorThumbnails"`
	Published            int64                    `json:"published"`
	LikeCount            int64                    `json:"likeCount"`
	AuthorIsChannelOwner bool                     `json:"authorIsChannelOwner"`
	IsPinned             bool                     `json:"isPinned"`
}

type InvidiousCommentReplies struct {
	Continuation string `json:"continuation"`
	ReplyCount   int    `json:"replyCount"`
}

type InvidiousChannel struct {
	Author           string               `json:"author"`
	AuthorID         string               `json:"authorId"`
	AuthorURL        string               `json:"authorUrl"`
	Description      string               `json:"description"`
	AuthorBanners    []InvidiousThumbnail `json:"authorBanners"`
	AuthorThumbnails []InvidiousThumbnail `json:"authorThumbnails"`
	LatestVideos     []InvidiousVideoItem `json:"latestVideos"`
	SubCount         int64                `json:"subCount"`
	TotalViews       int64                `json:"totalViews"`
	AutoGenerated    bool                 `json:"autoGenerated"`
}
