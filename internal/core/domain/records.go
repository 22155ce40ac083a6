package domain

import "time"

// Records kept by the local store. They belong to the client's own state, not
// to any provider, and are keyed by video or channel ID.

type DownloadStatus string

const (
	DownloadPending     DownloadStatus = "pending"
	DownloadDownloading DownloadStatus = "downloading"
	DownloadCompleted   DownloadStatus = "completed"
	DownloadFailed      DownloadStatus = "failed"
	DownloadPaused      DownloadStatus = "paused"
)

func (s DownloadStatus) IsTerminal() bool {
	return s == DownloadCompleted || s == DownloadFailed
}

type DownloadEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	VideoID   string         `json:"video_id"`
	Title     string         `json:"title"`
	Thumbnail string         `json:"thumbnail"`
	Uploader  string         `json:"uploader"`
	FilePath  string         `json:"file_path"`
	Quality   string         `json:"quality"`
	SourceURL string         `json:"source_url"`
	Status    DownloadStatus `json:"status"`
	Error     string         `json:"error,omitempty"`
	Duration  int64          `json:"duration"`
	FileSize  int64          `json:"file_size"`
	Progress  int            `json:"progress"`
	AudioOnly bool           `json:"audio_only"`
}

func (d DownloadEntry) Key() string          { return d.VideoID }
func (d DownloadEntry) UpdatedAt() time.Time { return d.Timestamp }

type HistoryEntry struct {
	Timestamp        time.Time `json:"timestamp"`
	VideoID          string    `json:"video_id"`
	Title            string    `json:"title"`
	Thumbnail        string    `json:"thumbnail"`
	Uploader         string    `json:"uploader"`
	UploaderURL      string    `json:"uploader_url"`
	Duration         int64     `json:"duration"`
	ProgressPosition int64     `json:"progress_position"`
}

func (h HistoryEntry) Key() string         { return h.VideoID }
func (h HistoryEntry) UpdatedAt() time.Time { return h.Timestamp }

type Subscription struct {
	Timestamp       time.Time `json:"timestamp"`
	ChannelID       string    `json:"channel_id"`
	ChannelName     string    `json:"channel_name"`
	AvatarURL       string    `json:"avatar_url"`
	SubscriberCount int64     `json:"subscriber_count"`
	Verified        bool      `json:"verified"`
}

func (s Subscription) Key() string         { return s.ChannelID }
func (s Subscription) UpdatedAt() time.Time { return s.Timestamp }

// SettingsKey is the single key user settings are stored under.
const SettingsKey = "settings"

type Settings struct {
	Timestamp         time.Time `json:"timestamp"`
	DefaultRegion     string    `json:"default_region"`
	DefaultQuality    string    `json:"default_quality"`
	DownloadQuality   string    `json:"download_quality"`
	PreferredInstance string    `json:"preferred_instance"`
	PlaybackSpeed     float64   `json:"playback_speed"`
	BackgroundPlay    bool      `json:"background_play"`
	AutoPlay          bool      `json:"auto_play"`
}

func (s Settings) Key() string         { return SettingsKey }
func (s Settings) UpdatedAt() time.Time { return s.Timestamp }

// DefaultSettings mirrors what a fresh install starts with.
func DefaultSettings() Settings {
	return Settings{
		DefaultRegion:   "US",
		DefaultQuality:  "720p",
		DownloadQuality: "720p",
		PlaybackSpeed:   1.0,
		BackgroundPlay:  true,
		AutoPlay:        true,
	}
}

// DownloadRequest asks for an offline copy of one video
type DownloadRequest struct {
	VideoID   string `json:"video_id"`
	Quality   string `json:"quality"`
	AudioOnly bool   `json:"audio_only"`
}
