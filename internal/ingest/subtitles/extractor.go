// Package subtitles implements the subtitle extractor: a yt-dlp subprocess wrapper
// that downloads English captions and normalizes them into a single plain-text
// transcript, following the pack's context-bound exec.CommandContext + separated-stderr
// idiom for wrapping external CLI tools.
package subtitles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	sentinel "github.com/chaptered/core/internal/pkg/errors"
	"github.com/chaptered/core/internal/pkg/logger"
)

const processTimeout = 120 * time.Second

// Extractor turns a video id into a plain-text transcript.
type Extractor interface {
	ExtractTranscript(ctx context.Context, videoID string) (string, error)
}

type extractor struct {
	log       *logger.Logger
	ytDlpPath string
	fillers   []string
}

// NewExtractor constructs the subprocess wrapper. ytDlpPath is resolved once at process
// start (YTDLP_PATH env var, default "yt-dlp" resolved via PATH); a missing binary is
// detected lazily on first invocation and surfaces as a fatal environment error.
func NewExtractor(log *logger.Logger, ytDlpPath string) Extractor {
	if strings.TrimSpace(ytDlpPath) == "" {
		ytDlpPath = "yt-dlp"
	}
	return &extractor{
		log:       log.With("service", "SubtitleExtractor"),
		ytDlpPath: ytDlpPath,
		fillers:   defaultFillerMarkers,
	}
}

// ExtractTranscript downloads manual English captions, falling back to auto-generated
// captions when none exist, and returns the normalized plain-text transcript. A video
// with no captions at all returns ("", nil); the caller treats that as an empty
// chunk list, not a failure.
func (e *extractor) ExtractTranscript(ctx context.Context, videoID string) (string, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return "", sentinel.ErrInvalidArgument
	}

	dir, err := os.MkdirTemp("", "subtitles-"+videoID+"-")
	if err != nil {
		return "", fmt.Errorf("%w: create temp dir: %v", sentinel.ErrUpstream, err)
	}
	defer os.RemoveAll(dir)

	runCtx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()

	outTemplate := filepath.Join(dir, "%(id)s.%(ext)s")
	url := "https://www.youtube.com/watch?v=" + videoID

	if err := e.run(runCtx, []string{
		"--skip-download",
		"--write-sub", "--write-auto-sub",
		"--sub-lang", "en",
		"--sub-format", "srt",
		"--convert-subs", "srt",
		"-o", outTemplate,
		url,
	}); err != nil {
		return "", err
	}

	path, ok := findSubtitleFile(dir, videoID)
	if !ok {
		return "", nil // no captions: not an error to the caller.
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read subtitle file: %v", sentinel.ErrUpstream, err)
	}
	return normalizeSRT(string(raw), e.fillers), nil
}

// run invokes yt-dlp with stderr captured separately from stdout so diagnostics are
// never interleaved into the parsed subtitle body. A missing binary is classified as
// ErrEnvironment (fatal); anything else is ErrUpstream after the process exits.
func (e *extractor) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, e.ytDlpPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: yt-dlp binary not found: %v", sentinel.ErrEnvironment, err)
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%w: yt-dlp binary not found: %v", sentinel.ErrEnvironment, err)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: yt-dlp timed out: %v", sentinel.ErrUpstream, ctx.Err())
	}
	e.log.Warn("yt-dlp invocation failed", "error", err.Error(), "stderr", stderr.String())
	return fmt.Errorf("%w: yt-dlp: %v", sentinel.ErrUpstream, err)
}

// findSubtitleFile picks the captions file yt-dlp produced, preferring a manual track
// over the auto-generated one when both are present.
func findSubtitleFile(dir, videoID string) (string, bool) {
	manual := filepath.Join(dir, videoID+".en.srt")
	if _, err := os.Stat(manual); err == nil {
		return manual, true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".srt") && strings.Contains(name, videoID) {
			return filepath.Join(dir, name), true
		}
	}
	return "", false
}
