package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbedURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "youtube watch",
			in:   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want: "https://www.youtube.com/embed/dQw4w9WgXcQ?rel=0&modestbranding=1&showinfo=0",
		},
		{
			name: "youtube short link with query",
			in:   " https://youtu.be/dQw4w9WgXcQ?t=10 ",
			want: "https://www.youtube.com/embed/dQw4w9WgXcQ?rel=0&modestbranding=1&showinfo=0",
		},
		{
			name: "vimeo",
			in:   "https://vimeo.com/76979871",
			want: "https://player.vimeo.com/video/76979871?color=ffffff&title=0&byline=0&portrait=0",
		},
		{
			name: "already embedded",
			in:   "https://player.vimeo.com/video/76979871",
			want: "https://player.vimeo.com/video/76979871",
		},
		{
			name: "other host",
			in:   "https://example.com/clip.mp4",
			want: "https://example.com/clip.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EmbedURL(tt.in))
		})
	}
}

func TestVideoEmbedsSplitsList(t *testing.T) {
	got := VideoEmbeds("https://youtu.be/dQw4w9WgXcQ, ,https://example.com/v.mp4")

	assert.Equal(t, []string{
		"https://www.youtube.com/embed/dQw4w9WgXcQ?rel=0&modestbranding=1&showinfo=0",
		"https://example.com/v.mp4",
	}, got)
	assert.Empty(t, VideoEmbeds(""))
}
