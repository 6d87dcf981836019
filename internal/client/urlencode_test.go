package client

import "testing"

func TestEscape(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unencoded", "abc-ABC_123.tilde~..", "abc-ABC_123.tilde~.."},
		{"slashes", "abc/def", "abc%2Fdef"},
		{"spaces", "abc def", "abc%20def"},
		{"control", "abc\ndef", "abc%0Adef"},
		{"plus", "a+b", "a%2Bb"},
		{"unicode", "é", "%C3%A9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Escape(tt.input); got != tt.want {
				t.Errorf("Escape(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
