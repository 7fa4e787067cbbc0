package analyze

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text untouched",
			input:    "Hello, how are you?",
			expected: "Hello, how are you?",
		},
		{
			name:     "whitespace collapsed",
			input:    "too   many\n\nspaces\there",
			expected: "too many spaces here",
		},
		{
			name:     "unsafe characters removed",
			input:    "50% off* (today only) & more!",
			expected: "50 off today only  more!",
		},
		{
			name:     "html stripped",
			input:    "<div><p>Your order has <b>shipped</b>.</p></div>",
			expected: "Your order has shipped.",
		},
		{
			name:     "script and style content dropped",
			input:    "<html><style>p {color: red}</style><p>Meeting at 3pm</p><script>alert(1)</script></html>",
			expected: "Meeting at 3pm",
		},
		{
			name:     "leading and trailing space trimmed",
			input:    "  padded  ",
			expected: "padded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIsMarkup(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "empty", input: "", expected: false},
		{name: "plain text", input: "no tags here", expected: false},
		{name: "html tag", input: "<p>hi</p>", expected: true},
		{name: "self-closing tag", input: "line one<br/>line two", expected: true},
		{name: "lone angle bracket", input: "5 < 10", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMarkup(tt.input); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTruncateRuneSafe(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{name: "shorter than limit", input: "short", n: 10, expected: "short"},
		{name: "exactly at limit", input: "exact", n: 5, expected: "exact"},
		{name: "cut at limit", input: "truncated", n: 5, expected: "trunc"},
		{name: "multibyte runes not split", input: "héllo wörld", n: 7, expected: "héllo w"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.input, tt.n); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
