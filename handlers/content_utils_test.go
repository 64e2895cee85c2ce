package handlers

import (
	"reflect"
	"strings"
	"testing"
)

func TestMakePreview(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxLen   int
		expected string
	}{
		{
			name:     "Short text unchanged",
			text:     "Nova steps into the server room.",
			maxLen:   280,
			expected: "Nova steps into the server room.",
		},
		{
			name:     "Newlines collapsed",
			text:     "Nova:\nfirst line\n\nTerminal:\nsecond line",
			maxLen:   280,
			expected: "Nova: first line Terminal: second line",
		},
		{
			name:     "Long text cut on word boundary",
			text:     "one two three four five six",
			maxLen:   13,
			expected: "one two...",
		},
		{
			name:     "Whitespace only",
			text:     "   \n\t  ",
			maxLen:   50,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := makePreview(tt.text, tt.maxLen)
			if result != tt.expected {
				t.Errorf("makePreview() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestMakePreviewNeverExceedsBudgetByMuch(t *testing.T) {
	long := strings.Repeat("word ", 200)
	result := makePreview(long, 280)
	if len([]rune(result)) > 283 { // budget plus ellipsis
		t.Errorf("preview too long: %d runes", len([]rune(result)))
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "Lowercased and trimmed",
			input:    []string{" Security ", "AUDIT"},
			expected: []string{"security", "audit"},
		},
		{
			name:     "Duplicates removed keeping order",
			input:    []string{"ai", "security", "AI", "security"},
			expected: []string{"ai", "security"},
		},
		{
			name:     "Empty entries dropped",
			input:    []string{"", "  ", "valid"},
			expected: []string{"valid"},
		},
		{
			name:     "Empty slice",
			input:    []string{},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizeTags(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("normalizeTags() = %v, want %v", result, tt.expected)
			}
		})
	}
}
