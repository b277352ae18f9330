package youtube

import "testing"

func TestExtractVideoIDFormats(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"bare id", "dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch url with extra params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=30s", "dQw4w9WgXcQ"},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed url", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"v path url", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"mobile host", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractVideoID(tc.input)
			if err != nil {
				t.Fatalf("ExtractVideoID(%q): unexpected error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("ExtractVideoID(%q): want=%q got=%q", tc.input, tc.want, got)
			}
		})
	}
}

func TestExtractVideoIDInvalidInput(t *testing.T) {
	cases := []string{
		"",
		"too-short",
		"https://example.com/watch?v=dQw4w9WgXcQ",
		"not a url at all and definitely not an id",
	}
	for _, input := range cases {
		input := input
		t.Run(input, func(t *testing.T) {
			if _, err := ExtractVideoID(input); err == nil {
				t.Fatalf("ExtractVideoID(%q): expected error, got nil", input)
			}
		})
	}
}

func TestExtractVideoIDsFailsWholeBatchOnOneBadInput(t *testing.T) {
	_, err := ExtractVideoIDs([]string{"dQw4w9WgXcQ", "bad"})
	if err == nil {
		t.Fatalf("expected error for malformed batch member")
	}
}
