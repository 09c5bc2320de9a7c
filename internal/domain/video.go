package domain

import (
	"regexp"
	"strings"
)

var (
	youtubeIDPattern = regexp.MustCompile(`^.*((youtu.be/)|(v/)|(/u/\w/)|(embed/)|(watch\?))\??v?=?([^#&?]*).*`)
	vimeoIDPattern   = regexp.MustCompile(`(?i)vimeo\.com.*(?:videos|video|channels|)/(\d+)`)
)

// VideoEmbeds splits a topic's video field and converts each entry to an embeddable URL.
func VideoEmbeds(video string) []string {
	var out []string
	for _, part := range strings.Split(video, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, EmbedURL(part))
	}
	return out
}

// EmbedURL rewrites YouTube and Vimeo links to their player URLs.
// Anything else is returned trimmed but unchanged.
func EmbedURL(raw string) string {
	u := strings.TrimSpace(raw)

	switch {
	case strings.Contains(u, "youtube.com/watch?v="):
		if m := youtubeIDPattern.FindStringSubmatch(u); m != nil && len(m[7]) == 11 {
			u = "https://www.youtube.com/embed/" + m[7] + "?rel=0&modestbranding=1&showinfo=0"
		}
	case strings.Contains(u, "youtu.be/"):
		id := strings.SplitN(strings.SplitN(u, "youtu.be/", 2)[1], "?", 2)[0]
		if id != "" {
			u = "https://www.youtube.com/embed/" + id + "?rel=0&modestbranding=1&showinfo=0"
		}
	}

	if strings.Contains(u, "vimeo.com/") && !strings.Contains(u, "player.vimeo.com/") {
		if m := vimeoIDPattern.FindStringSubmatch(u); m != nil {
			u = "https://player.vimeo.com/video/" + m[1] + "?color=ffffff&title=0&byline=0&portrait=0"
		}
	}
	return u
}
