package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/freytube/freytube/internal/app"
	"github.com/freytube/freytube/internal/config"
	"github.com/freytube/freytube/internal/core/domain"
	"github.com/freytube/freytube/internal/env"
	"github.com/freytube/freytube/internal/logger"
	"github.com/freytube/freytube/internal/util"
	"github.com/freytube/freytube/theme"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const cliTimeout = 2 * time.Minute

// withCore loads config and hands fn a failover stack with metrics left
// unregistered. verbose routes the failover log to the terminal.
func withCore(cmd *cobra.Command, fn func(ctx context.Context, core *app.Core) (any, error)) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewDiscard()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		_, styled, cleanup, err := logger.NewWithTheme(&logger.Config{Level: "debug", Theme: "default"})
		if err != nil {
			return err
		}
		defer cleanup()
		log = styled
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
	defer cancel()

	core := app.NewCore(cfg, nil, log)
	if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
		core.Discovery.Refresh(ctx)
	}

	result, err := fn(ctx, core)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func catalogCmd(use, short string, args cobra.PositionalArgs, fn func(ctx context.Context, core *app.Core, cmd *cobra.Command, args []string) (any, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(cmd, func(ctx context.Context, core *app.Core) (any, error) {
				return fn(ctx, core, cmd, args)
			})
		},
	}
	cmd.Flags().BoolP("verbose", "v", false, "Log every instance attempt")
	cmd.Flags().Bool("refresh", false, "Refresh instance lists from the public directories first")
	return cmd
}

func newCatalogCmds() []*cobra.Command {
	trending := catalogCmd("trending", "List trending videos", cobra.NoArgs,
		func(ctx context.Context, core *app.Core, cmd *cobra.Command, _ []string) (any, error) {
			region, _ := cmd.Flags().GetString("region")
			items, err := core.Catalog.Trending(ctx, region)
			return listOrTable(cmd, items, err)
		})
	trending.Flags().String("region", "US", "Two letter region code")
	trending.Flags().Bool("table", false, "Print a table instead of JSON")

	search := catalogCmd("search <query>", "Search videos, channels and playlists", cobra.ExactArgs(1),
		func(ctx context.Context, core *app.Core, cmd *cobra.Command, args []string) (any, error) {
			filter, _ := cmd.Flags().GetString("filter")
			var (
				result domain.SearchResponse
				err    error
			)
			if page, _ := cmd.Flags().GetString("page"); page != "" {
				result, err = core.Catalog.SearchNextPage(ctx, args[0], filter, page)
			} else {
				result, err = core.Catalog.Search(ctx, args[0], filter)
			}
			if err != nil {
				return nil, err
			}
			if table, _ := cmd.Flags().GetBool("table"); table {
				return nil, itemTable(result.Items)
			}
			return result, nil
		})
	search.Flags().String("filter", "all", "Result filter such as videos, channels or playlists")
	search.Flags().String("page", "", "Continuation token from a previous result")
	search.Flags().Bool("table", false, "Print a table instead of JSON")

	suggestions := catalogCmd("suggestions <query>", "Search suggestions for a partial query", cobra.ExactArgs(1),
		func(ctx context.Context, core *app.Core, _ *cobra.Command, args []string) (any, error) {
			return core.Catalog.Suggestions(ctx, args[0])
		})

	video := catalogCmd("video <id>", "Show a video with its playable streams", cobra.ExactArgs(1),
		func(ctx context.Context, core *app.Core, cmd *cobra.Command, args []string) (any, error) {
			stream, err := core.Catalog.Streams(ctx, args[0])
			if err != nil {
				return nil, err
			}
			if full, _ := cmd.Flags().GetBool("full"); full {
				return stream, nil
			}
			return videoSummary(stream), nil
		})
	video.Flags().Bool("full", false, "Print every stream and related video")

	channel := catalogCmd("channel <id>", "Show a channel and its latest uploads", cobra.ExactArgs(1),
		func(ctx context.Context, core *app.Core, cmd *cobra.Command, args []string) (any, error) {
			if page, _ := cmd.Flags().GetString("page"); page != "" {
				return core.Catalog.ChannelNextPage(ctx, args[0], page)
			}
			return core.Catalog.Channel(ctx, args[0])
		})
	channel.Flags().String("page", "", "Continuation token from a previous result")

	comments := catalogCmd("comments <video-id>", "List comments on a video", cobra.ExactArgs(1),
		func(ctx context.Context, core *app.Core, cmd *cobra.Command, args []string) (any, error) {
			if page, _ := cmd.Flags().GetString("page"); page != "" {
				return core.Catalog.CommentsNextPage(ctx, args[0], page)
			}
			return core.Catalog.Comments(ctx, args[0])
		})
	comments.Flags().String("page", "", "Continuation token from a previous result")

	return []*cobra.Command{trending, search, suggestions, video, channel, comments}
}

type streamSummary struct {
	Quality  string `json:"quality"`
	MimeType string `json:"mime_type"`
	Size     string `json:"size"`
	URL      string `json:"url"`
}

type videoOverview struct {
	Title    string          `json:"title"`
	Uploader string          `json:"uploader"`
	Duration string          `json:"duration"`
	Views    string          `json:"views"`
	HLS      string          `json:"hls,omitempty"`
	Muxed    []streamSummary `json:"muxed"`
	Audio    *streamSummary  `json:"best_audio,omitempty"`
	Adaptive int             `json:"adaptive_video_streams"`
}

func videoSummary(v domain.VideoStream) videoOverview {
	out := videoOverview{
		Title:    v.Title,
		Uploader: v.Uploader,
		Duration: domain.FormatDuration(v.Duration),
		Views:    v.FormattedViews(),
		HLS:      v.HLS,
		Muxed:    []streamSummary{},
		Adaptive: len(v.VideoOnlyStreams()),
	}
	for _, s := range v.MuxedStreams() {
		out.Muxed = append(out.Muxed, streamSummary{Quality: s.QualityLabel(), MimeType: s.MimeType, Size: s.FormattedSize(), URL: s.URL})
	}
	if audio, ok := v.BestAudioStream(); ok {
		out.Audio = &streamSummary{
			Quality:  strconv.Itoa(audio.Bitrate/1000) + "kbps",
			MimeType: audio.MimeType,
			Size:     audio.FormattedSize(),
			URL:      audio.URL,
		}
	}
	return out
}

// itemTable renders list results for a terminal instead of JSON
func itemTable(items []domain.StreamItem) error {
	rows := pterm.TableData{{"ID", "Title", "Uploader", "Length", "Views"}}
	for _, item := range items {
		rows = append(rows, []string{
			item.VideoID(),
			util.Truncate(item.Title, 60),
			item.UploaderName,
			item.FormattedDuration(),
			item.FormattedViews(),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(os.Stdout).WithData(rows).Render()
}

// listOrTable returns items for JSON output, or renders them and returns nil
func listOrTable(cmd *cobra.Command, items []domain.StreamItem, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if table, _ := cmd.Flags().GetBool("table"); table {
		return nil, itemTable(items)
	}
	return items, nil
}

func newInstancesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instances",
		Short: "Show the configured instances in failover order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			return withCore(cmd, func(_ context.Context, core *app.Core) (any, error) {
				statuses := make([]domain.ProviderStatus, 0, len(domain.Providers))
				for _, provider := range domain.Providers {
					statuses = append(statuses, core.Registry.Snapshot(provider))
				}
				if asJSON {
					return statuses, nil
				}
				return nil, renderInstances(statuses, theme.GetTheme(env.GetEnvOrDefault("FREYTUBE_THEME", "default")))
			})
		},
	}
	cmd.Flags().Bool("json", false, "Print JSON instead of a table")
	cmd.Flags().BoolP("verbose", "v", false, "Log discovery progress")
	cmd.Flags().Bool("refresh", false, "Refresh instance lists from the public directories first")
	return cmd
}

func renderInstances(statuses []domain.ProviderStatus, colours *theme.Theme) error {
	rows := pterm.TableData{{"Provider", "Instance", "Current", "Available"}}
	for _, status := range statuses {
		for _, inst := range status.Instances {
			current := ""
			if inst.Current {
				current = "*"
			}
			state := colours.Available.Sprint("yes")
			if !inst.Available {
				state = colours.Cooldown.Sprint("cooling down")
			}
			rows = append(rows, []string{colours.Provider.Sprint(status.Provider), inst.URL, current, state})
		}
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(os.Stdout).WithData(rows).Render()
}
