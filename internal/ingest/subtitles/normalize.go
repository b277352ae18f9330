package subtitles

import (
	"regexp"
	"strings"
)

// defaultFillerMarkers is the closed set of non-speech captions stripped from the
// transcript. Configurable in spirit; fixed here since nothing in the current
// config surface overrides it.
var defaultFillerMarkers = []string{
	"[music]",
	"[applause]",
	"[laughter]",
	"[laughing]",
	"[silence]",
	"[inaudible]",
}

var (
	sequenceNumberPattern = regexp.MustCompile(`^\d+$`)
	timeRangePattern      = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}[,.]\d{3}\s*-->\s*\d{2}:\d{2}:\d{2}[,.]\d{3}`)
	htmlTagPattern        = regexp.MustCompile(`<[^>]*>`)
)

// normalizeSRT turns a raw SRT body into plain text: strips sequence-number lines, time-range
// lines, and empty lines; collapses consecutive duplicate lines into one occurrence
// (the defining normalization step for rolling auto-caption duplicates); strips filler
// markers; and whitespace-normalizes the result into a single string.
func normalizeSRT(raw string, fillers []string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	kept := make([]string, 0, len(lines))
	var prev string
	havePrev := false

	for _, line := range lines {
		line = htmlTagPattern.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if sequenceNumberPattern.MatchString(line) {
			continue
		}
		if timeRangePattern.MatchString(line) {
			continue
		}
		line = stripFillers(line, fillers)
		line = collapseWhitespace(line)
		if line == "" {
			continue
		}
		if havePrev && line == prev {
			continue // collapse consecutive duplicate lines
		}
		kept = append(kept, line)
		prev = line
		havePrev = true
	}

	return collapseWhitespace(strings.Join(kept, " "))
}

func stripFillers(line string, fillers []string) string {
	lower := strings.ToLower(line)
	for _, f := range fillers {
		for {
			idx := strings.Index(lower, f)
			if idx == -1 {
				break
			}
			line = line[:idx] + line[idx+len(f):]
			lower = lower[:idx] + lower[idx+len(f):]
		}
	}
	return line
}

func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}

