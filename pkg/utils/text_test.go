package utils

import (
	"testing"
)

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "already clean", in: "a b c", want: "a b c"},
		{name: "mixed runs", in: "  a \n\n\tb   c ", want: "a b c"},
		{name: "empty", in: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CollapseWhitespace(tt.in); got != tt.want {
				t.Errorf("CollapseWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short enough", in: "hello", max: 10, want: "hello"},
		{name: "ascii cut", in: "hello world", max: 5, want: "hello..."},
		{name: "does not split rune", in: "héllo", max: 2, want: "h..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestSafeSlice(t *testing.T) {
	text := "abcdef"
	if got := SafeSlice(text, -5, 3); got != "abc" {
		t.Errorf("SafeSlice = %q, want %q", got, "abc")
	}
	if got := SafeSlice(text, 4, 100); got != "ef" {
		t.Errorf("SafeSlice = %q, want %q", got, "ef")
	}
	if got := SafeSlice(text, 4, 2); got != "" {
		t.Errorf("SafeSlice = %q, want empty", got)
	}
	if got := SafeSlice("aé", 2, 3); got != "é" {
		t.Errorf("SafeSlice = %q, want %q", got, "é")
	}
}
