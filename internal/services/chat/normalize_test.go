package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"surrounding whitespace", "   hello   ", "hello"},
		{"blank lines collapsed", "   hello\n\n\nworld   ", "hello\nworld"},
		{"interior newlines kept", "a\nb\nc", "a\nb\nc"},
		{"control characters stripped", "he\x00l\x07lo", "hello"},
		{"tabs stripped", "a\tb", "ab"},
		{"whitespace-only lines dropped", "  \n \n\t\n", ""},
		{"empty", "", ""},
		{"unicode kept", "héllo wörld", "héllo wörld"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"   hello\n\n\nworld   ",
		"a\tb\x00c",
		"already clean",
		"\n\n\n",
		"line one\nline two",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
