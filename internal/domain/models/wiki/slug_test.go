package wiki

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "lowercases", title: "Hello", want: "hello"},
		{name: "spaces become hyphens", title: "Getting Started Guide", want: "getting-started-guide"},
		{name: "whitespace runs collapse", title: "a \t  b\n c", want: "a-b-c"},
		{name: "punctuation stripped", title: "What's new? (2024)", want: "whats-new-2024"},
		{name: "namespace marker", title: "User:ana", want: "userana"},
		{name: "existing hyphens kept once", title: "multi--word - title", want: "multi-word-title"},
		{name: "trims edges", title: "  -Edges- ", want: "edges"},
		{name: "unicode letters kept", title: "Café Menü", want: "café-menü"},
		{name: "only punctuation", title: "?!...", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestSlugify_Deterministic(t *testing.T) {
	title := "Release Notes: v2.0"
	first := Slugify(title)
	for i := 0; i < 10; i++ {
		if got := Slugify(title); got != first {
			t.Fatalf("Slugify not deterministic: %q vs %q", got, first)
		}
	}
	if first != "release-notes-v20" {
		t.Errorf("Slugify(%q) = %q", title, first)
	}
}
