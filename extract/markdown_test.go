package extract

import (
	"strings"
	"testing"
)

func TestSpeakableText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"plain paragraph",
			"The quick brown fox.",
			"The quick brown fox.",
		},
		{
			"heading and paragraph",
			"# Title\n\nBody text here.",
			"Title Body text here.",
		},
		{
			"link keeps text drops url",
			"Read [the docs](https://example.com) today.",
			"Read the docs today.",
		},
		{
			"emphasis flattened",
			"This is *very* **important**.",
			"This is very important.",
		},
		{
			"fenced code dropped",
			"Before.\n\n```go\nfmt.Println(\"hi\")\n```\n\nAfter.",
			"Before. After.",
		},
		{
			"image dropped",
			"Look: ![diagram](pic.png) done.",
			"Look: done.",
		},
		{
			"list items",
			"- first point\n- second point",
			"first point second point",
		},
		{
			"soft line breaks join words",
			"one\ntwo\nthree",
			"one two three",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SpeakableText([]byte(tt.in))
			if err != nil {
				t.Fatalf("SpeakableText() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpeakableTextEmpty(t *testing.T) {
	got, err := SpeakableText(nil)
	if err != nil {
		t.Fatalf("SpeakableText(nil) error: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestSpeakableTextTokenizes(t *testing.T) {
	got, err := SpeakableText([]byte("# The quick\n\nbrown **fox**"))
	if err != nil {
		t.Fatal(err)
	}
	words := strings.Fields(got)
	if len(words) != 4 {
		t.Errorf("got %d words %v, want 4", len(words), words)
	}
}
