// Package mapper converts Invidious wire records into the canonical model.
// Piped responses already decode into the canonical model, so only the
// fallback provider needs mapping.
package mapper

import (
	"slices"
	"strconv"
	"strings"

	"github.com/freytube/freytube/internal/adapter/client"
	"github.com/freytube/freytube/internal/core/domain"
	"github.com/freytube/freytube/internal/util"
)

const (
	preferredThumbnailQuality = "medium"
	shortDescriptionRunes     = 200
	maxShortSeconds           = 60

	defaultAudioContainer    = "webm"
	defaultCombinedContainer = "mp4"

	invidiousVideoType = "video"
	canonicalVideoType = "stream"
)

func ToStreamItem(item client.InvidiousVideoItem) domain.StreamItem {
	itemType := item.Type
	if itemType == invidiousVideoType {
		itemType = canonicalVideoType
	}

	return domain.StreamItem{
		URL:              domain.WatchURL(item.VideoID),
		Type:             itemType,
		Title:            item.Title,
		Thumbnail:        pickThumbnail(item.VideoThumbnails),
		UploaderName:     item.Author,
		UploaderURL:      item.AuthorURL,
		UploadedDate:     item.PublishedText,
		ShortDescription: util.Truncate(item.Description, shortDescriptionRunes),
		Duration:         item.LengthSeconds,
		Views:            item.ViewCount,
		Uploaded:         item.Published * 1000,
		UploaderVerified: item.AuthorVerified,
		IsShort:          item.LengthSeconds >= 1 && item.LengthSeconds <= maxShortSeconds,
	}
}

func ToStreamItems(items []client.InvidiousVideoItem) []domain.StreamItem {
	out := make([]domain.StreamItem, 0, len(items))
	for _, item := range items {
		out = append(out, ToStreamItem(item))
	}
	return out
}

// ToVideoStream maps a video detail. Progressive streams come first in
// VideoStreams, followed by the video-only adaptive formats.
func ToVideoStream(video client.InvidiousVideoDetail) domain.VideoStream {
	var audio, videoOnly []domain.Stream
	for _, f := range video.AdaptiveFormats {
		switch {
		case f.IsAudio():
			audio = append(audio, domain.Stream{
				URL:           f.URL,
				Format:        orDefault(f.Container, defaultAudioContainer),
				Quality:       f.AudioQuality,
				MimeType:      f.Type,
				Codec:         f.Encoding,
				Bitrate:       parseInt(f.Bitrate),
				ContentLength: util.ParseInt64OrZero(f.Clen),
			})
		case f.IsVideo():
			videoOnly = append(videoOnly, domain.Stream{
				URL:           f.URL,
				Format:        orDefault(f.Container, defaultAudioContainer),
				Quality:       orDefault(f.QualityLabel, f.Resolution),
				MimeType:      f.Type,
				Codec:         f.Encoding,
				VideoOnly:     true,
				Bitrate:       parseInt(f.Bitrate),
				Height:        heightFromResolution(f.Resolution),
				FPS:           f.FPS,
				ContentLength: util.ParseInt64OrZero(f.Clen),
			})
		}
	}

	videoStreams := make([]domain.Stream, 0, len(video.FormatStreams)+len(videoOnly))
	for _, f := range video.FormatStreams {
		videoStreams = append(videoStreams, domain.Stream{
			URL:      f.URL,
			Format:   orDefault(f.Container, defaultCombinedContainer),
			Quality:  orDefault(f.QualityLabel, f.Quality),
			MimeType: f.Type,
			Codec:    f.Encoding,
			Height:   heightFromResolution(f.Resolution),
			FPS:      f.FPS,
		})
	}
	videoStreams = append(videoStreams, videoOnly...)

	return domain.VideoStream{
		Title:                   video.Title,
		Description:             video.Description,
		UploadDate:              video.PublishedText,
		Uploader:                video.Author,
		UploaderURL:             video.AuthorURL,
		UploaderAvatar:          firstThumbnail(video.AuthorThumbnails),
		ThumbnailURL:            pickThumbnail(video.VideoThumbnails),
		HLS:                     video.HLSURL,
		Dash:                    video.DashURL,
		Category:                video.Genre,
		UploaderVerified:        video.AuthorVerified,
		Duration:                video.LengthSeconds,
		Views:                   video.ViewCount,
		Likes:                   video.LikeCount,
		Dislikes:                video.DislikeCount,
		AudioStreams:            nonNil(audio),
		VideoStreams:            videoStreams,
		RelatedStreams:          ToStreamItems(video.RecommendedVideos),
		Subtitles:               []domain.Subtitle{},
		Chapters:                []domain.Chapter{},
		PreviewFrames:           []domain.PreviewFrame{},
		Livestream:              video.LiveNow,
		UploaderSubscriberCount: video.SubCount,
	}
}

// ToSearchResponse wraps mapped results. Invidious pages by number, which the
// canonical next page token cannot express, so NextPage stays empty.
func ToSearchResponse(items []client.InvidiousVideoItem) domain.SearchResponse {
	return domain.SearchResponse{Items: ToStreamItems(items)}
}

func ToCommentsResponse(resp client.InvidiousCommentsResponse) domain.CommentsResponse {
	comments := make([]domain.Comment, 0, len(resp.Comments))
	for _, c := range resp.Comments {
		text := c.ContentHTML
		if strings.TrimSpace(text) == "" {
			text = c.Content
		}

		comment := domain.Comment{
			Author:         c.Author,
			Thumbnail:      firstThumbnail(c.AuthorThumbnails),
			CommentID:      c.CommentID,
			CommentText:    text,
			CommentedTime:  c.PublishedText,
			CommentorURL:   c.AuthorURL,
			LikeCount:      c.LikeCount,
			Hearted:        c.CreatorHeart != nil,
			Pinned:         c.IsPinned,
			CreatorReplied: c.AuthorIsChannelOwner,
		}
		if c.Replies != nil {
			comment.ReplyCount = c.Replies.ReplyCount
			comment.RepliesPage = c.Replies.Continuation
		}
		comments = append(comments, comment)
	}

	return domain.CommentsResponse{
		Comments: comments,
		NextPage: resp.Continuation,
	}
}

func ToChannel(channel client.InvidiousChannel) domain.Channel {
	return domain.Channel{
		ID:              channel.AuthorID,
		Name:            channel.Author,
		AvatarURL:       widestThumbnail(channel.AuthorThumbnails),
		BannerURL:       widestThumbnail(channel.AuthorBanners),
		Description:     channel.Description,
		SubscriberCount: channel.SubCount,
		RelatedStreams:  ToStreamItems(channel.LatestVideos),
	}
}

// pickThumbnail prefers the medium quality entry, then the first one
func pickThumbnail(thumbs []client.InvidiousThumbnail) string {
	for _, t := range thumbs {
		if t.Quality == preferredThumbnailQuality {
			return t.URL
		}
	}
	return firstThumbnail(thumbs)
}

func firstThumbnail(thumbs []client.InvidiousThumbnail) string {
	if len(thumbs) == 0 {
		return ""
	}
	return thumbs[0].URL
}

func widestThumbnail(thumbs []client.InvidiousThumbnail) string {
	if len(thumbs) == 0 {
		return ""
	}
	widest := slices.MaxFunc(thumbs, func(a, b client.InvidiousThumbnail) int {
		return a.Width - b.Width
	})
	return widest.URL
}

// heightFromResolution reads "720p" as 720. Anything else, "720p60" included,
// yields 0.
func heightFromResolution(resolution string) int {
	height, err := strconv.Atoi(strings.TrimSuffix(resolution, "p"))
	if err != nil {
		return 0
	}
	return height
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
