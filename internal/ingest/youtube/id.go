package youtube

import (
	"net/url"
	"regexp"
	"strings"

	sentinel "github.com/chaptered/core/internal/pkg/errors"
)

// validIDPattern matches the 11-character YouTube video ID alphabet.
var validIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractVideoID accepts either a raw 11-character ID or one of the canonical URL forms
// (watch?v=, youtu.be/, /embed/, /v/, /shorts/, on youtube.com or youtube-nocookie.com)
// and returns the bare ID. Anything else is invalid input.
func ExtractVideoID(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", sentinel.ErrInvalidArgument
	}

	if validIDPattern.MatchString(s) {
		return s, nil
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "", sentinel.ErrInvalidArgument
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")

	switch host {
	case "youtu.be":
		id := strings.TrimPrefix(u.Path, "/")
		if validIDPattern.MatchString(id) {
			return id, nil
		}
	case "youtube.com", "youtube-nocookie.com":
		if id := u.Query().Get("v"); validIDPattern.MatchString(id) {
			return id, nil
		}
		for _, prefix := range []string{"/embed/", "/v/", "/shorts/"} {
			if strings.HasPrefix(u.Path, prefix) {
				id := strings.TrimPrefix(u.Path, prefix)
				id = strings.SplitN(id, "/", 2)[0]
				if validIDPattern.MatchString(id) {
					return id, nil
				}
			}
		}
	}

	return "", sentinel.ErrInvalidArgument
}

// ExtractVideoIDs applies ExtractVideoID to each input, failing the whole batch if any
// one input is malformed (the caller decides per-ID existence via NotFound, not here).
func ExtractVideoIDs(inputs []string) ([]string, error) {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		id, err := ExtractVideoID(in)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
