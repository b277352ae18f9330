package subtitles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSRTStripsStructureLines(t *testing.T) {
	raw := "1\n00:00:01,000 --> 00:00:03,500\nHello there.\n\n2\n00:00:03,500 --> 00:00:06,000\nWelcome back.\n"
	assert.Equal(t, "Hello there. Welcome back.", normalizeSRT(raw, defaultFillerMarkers))
}

func TestNormalizeSRTCollapsesRollingDuplicates(t *testing.T) {
	// Auto-generated captions repeat the current line as the window rolls forward.
	raw := "1\n00:00:01,000 --> 00:00:02,000\nso today we are\n\n2\n00:00:02,000 --> 00:00:03,000\nso today we are\n\n3\n00:00:03,000 --> 00:00:04,000\ngoing to talk about\n"
	assert.Equal(t, "so today we are going to talk about", normalizeSRT(raw, defaultFillerMarkers))
}

func TestNormalizeSRTKeepsNonConsecutiveRepeats(t *testing.T) {
	raw := "1\n00:00:01,000 --> 00:00:02,000\nyes\n\n2\n00:00:02,000 --> 00:00:03,000\nno\n\n3\n00:00:03,000 --> 00:00:04,000\nyes\n"
	assert.Equal(t, "yes no yes", normalizeSRT(raw, defaultFillerMarkers))
}

func TestNormalizeSRTRemovesFillerMarkersAndTags(t *testing.T) {
	raw := "1\n00:00:01,000 --> 00:00:02,000\n[Music] welcome <i>everyone</i>\n\n2\n00:00:02,000 --> 00:00:03,000\n[Applause]\n"
	assert.Equal(t, "welcome everyone", normalizeSRT(raw, defaultFillerMarkers))
}

func TestNormalizeSRTPreservesCaseAndPunctuation(t *testing.T) {
	raw := "1\n00:00:01,000 --> 00:00:02,000\nDon't Panic!\n"
	assert.Equal(t, "Don't Panic!", normalizeSRT(raw, defaultFillerMarkers))
}

func TestNormalizeSRTEmptyInput(t *testing.T) {
	assert.Empty(t, normalizeSRT("", defaultFillerMarkers))
}
