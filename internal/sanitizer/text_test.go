package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextSanitizer_Sanitize(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text unchanged", input: "fixed typo", want: "fixed typo"},
		{name: "tags stripped", input: "<b>bold</b> move", want: "bold move"},
		{name: "script removed", input: "ok<script>alert(1)</script>", want: "ok"},
		{name: "ampersand kept literal", input: "Q&A cleanup", want: "Q&A cleanup"},
		{name: "whitespace trimmed", input: "  spaced  ", want: "spaced"},
		{name: "markup only", input: "<img src=x onerror=alert(1)>", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Sanitize(tt.input))
		})
	}
}
