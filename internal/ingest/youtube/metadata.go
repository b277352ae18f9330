// Package youtube implements the metadata fetcher: a thin google.golang.org/api/youtube/v3
// service client that batch-resolves video IDs into a flattened Metadata record,
// following the retry-wrapped-external-call idiom (internal/pkg/httpx) rather than a
// bespoke loop.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	sentinel "github.com/chaptered/core/internal/pkg/errors"
	"github.com/chaptered/core/internal/pkg/httpx"
	"github.com/chaptered/core/internal/pkg/logger"
)

const batchSize = 50 // Videos.List upstream limit

// Metadata is the flattened per-video record the fetcher hands to the orchestrator for
// upsert into domain.Resource. thumbnails/localized stay opaque JSON blobs; localized
// is nil unless the video's DefaultLanguage/DefaultAudioLanguage isn't English.
type Metadata struct {
	ID              string
	Title           string
	ChannelID       string
	ChannelTitle    string
	Description     string
	Tags            []string
	PublishedAt     *time.Time
	DurationSeconds int
	ViewCount       *int64
	LikeCount       *int64
	CommentCount    *int64
	Thumbnails      json.RawMessage
	Localized       json.RawMessage
}

// Fetcher batch-resolves video IDs (or URLs) into Metadata records.
type Fetcher interface {
	FetchMetadata(ctx context.Context, idsOrURLs []string) ([]Metadata, error)
}

type fetcher struct {
	log *logger.Logger
	svc *yt.Service
}

// NewFetcher constructs the shared YouTube Data API client once at process start from
// YOUTUBE_API_KEY, then injected as a handle rather than held as a package global.
func NewFetcher(ctx context.Context, log *logger.Logger, apiKey string) (Fetcher, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("missing YOUTUBE_API_KEY")
	}
	svc, err := yt.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("init youtube service: %w", err)
	}
	return &fetcher{log: log.With("service", "YouTubeFetcher"), svc: svc}, nil
}

// FetchMetadata resolves each input (URL or bare ID) and batches Videos.List calls 50
// IDs at a time. Missing IDs surface as NotFound rather than being silently dropped.
func (f *fetcher) FetchMetadata(ctx context.Context, idsOrURLs []string) ([]Metadata, error) {
	ids, err := ExtractVideoIDs(idsOrURLs)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	found := make(map[string]Metadata, len(ids))
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		items, err := f.listBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			found[item.ID] = item
		}
	}

	out := make([]Metadata, 0, len(ids))
	var missing []string
	for _, id := range ids {
		md, ok := found[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, md)
	}
	if len(missing) > 0 {
		return out, fmt.Errorf("%w: %s", sentinel.ErrNotFound, strings.Join(missing, ", "))
	}
	return out, nil
}

// listBatch performs one Videos.List call with exponential backoff (3 attempts, factor
// 2, base 500ms), distinguishing quota exhaustion (fatal) from transient 5xx.
func (f *fetcher) listBatch(ctx context.Context, ids []string) ([]Metadata, error) {
	const maxAttempts = 3
	backoff := 500 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		resp, err := f.svc.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
			Id(ids...).
			MaxResults(int64(batchSize)).
			Context(reqCtx).
			Do()
		cancel()
		if err == nil {
			return parseVideoListResponse(resp), nil
		}

		if isQuotaExceeded(err) {
			return nil, fmt.Errorf("%w: %v", sentinel.ErrQuotaExceeded, err)
		}
		if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code >= 400 && apiErr.Code < 500 {
			return nil, fmt.Errorf("%w: %v", sentinel.ErrInvalidArgument, err)
		}
		lastErr = err
		if !httpx.IsRetryableError(err) && !isRetryableGoogleAPIError(err) {
			break
		}
		if attempt == maxAttempts-1 {
			break
		}
		f.log.Warn("youtube Videos.List retrying", "attempt", attempt+1, "error", err.Error())
		time.Sleep(httpx.JitterSleep(backoff))
		backoff *= 2
	}
	return nil, fmt.Errorf("%w: %v", sentinel.ErrUpstream, lastErr)
}

func isRetryableGoogleAPIError(err error) bool {
	apiErr, ok := err.(*googleapi.Error)
	if !ok {
		return false
	}
	return httpx.IsRetryableHTTPStatus(apiErr.Code)
}

func isQuotaExceeded(err error) bool {
	apiErr, ok := err.(*googleapi.Error)
	if !ok {
		return false
	}
	if apiErr.Code != http.StatusForbidden && apiErr.Code != http.StatusTooManyRequests {
		return false
	}
	for _, e := range apiErr.Errors {
		if e.Reason == "quotaExceeded" || e.Reason == "dailyLimitExceeded" || e.Reason == "rateLimitExceeded" {
			return true
		}
	}
	return false
}

func parseVideoListResponse(resp *yt.VideoListResponse) []Metadata {
	out := make([]Metadata, 0, len(resp.Items))
	for _, item := range resp.Items {
		out = append(out, flattenVideo(item))
	}
	return out
}

// flattenVideo is the one parser for the YouTube API's loosely-typed snippet payload:
// typed fields with explicit fallbacks, no positional access.
func flattenVideo(v *yt.Video) Metadata {
	md := Metadata{ID: v.Id}
	if sn := v.Snippet; sn != nil {
		md.Title = sn.Title
		md.Description = sn.Description
		md.ChannelID = sn.ChannelId
		md.ChannelTitle = sn.ChannelTitle
		md.Tags = sn.Tags
		if t, err := time.Parse(time.RFC3339, sn.PublishedAt); err == nil {
			md.PublishedAt = &t
		}
		if sn.Thumbnails != nil {
			if b, err := json.Marshal(sn.Thumbnails); err == nil {
				md.Thumbnails = b
			}
		}
		// localized is dropped when the source's default language is English.
		defaultLang := strings.ToLower(sn.DefaultLanguage)
		if defaultLang == "" {
			defaultLang = strings.ToLower(sn.DefaultAudioLanguage)
		}
		if sn.Localized != nil && defaultLang != "" && !strings.HasPrefix(defaultLang, "en") {
			if b, err := json.Marshal(sn.Localized); err == nil {
				md.Localized = b
			}
		}
	}
	if st := v.Statistics; st != nil {
		// LikeCount/CommentCount are absent (not zero) when the creator hides them;
		// ForceSendFields tells them apart from a genuine 0 (googleapi convention).
		if hasForceSendField(st.ForceSendFields, "ViewCount") || st.ViewCount != 0 {
			vc := int64(st.ViewCount)
			md.ViewCount = &vc
		}
		if hasForceSendField(st.ForceSendFields, "LikeCount") || st.LikeCount != 0 {
			lc := int64(st.LikeCount)
			md.LikeCount = &lc
		}
		if hasForceSendField(st.ForceSendFields, "CommentCount") || st.CommentCount != 0 {
			cc := int64(st.CommentCount)
			md.CommentCount = &cc
		}
	}
	if cd := v.ContentDetails; cd != nil {
		md.DurationSeconds = parseISO8601Duration(cd.Duration)
	}
	return md
}

func hasForceSendField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

var iso8601DurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseISO8601Duration converts the contentDetails.duration ISO-8601 form ("PT1H2M3S")
// to whole seconds; malformed input yields 0 rather than erroring the whole record.
func parseISO8601Duration(s string) int {
	m := iso8601DurationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	return hours*3600 + minutes*60 + seconds
}
