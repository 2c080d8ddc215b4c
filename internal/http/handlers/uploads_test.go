package handlers

import "testing"

func TestMenuSlug(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple", input: "Burger", expected: "burger"},
		{name: "spaces", input: "Nasi Goreng Special", expected: "nasi-goreng-special"},
		{name: "punctuation stripped", input: "Mee Goreng (Spicy!)", expected: "mee-goreng-spicy"},
		{name: "trimmed", input: "  Satay  ", expected: "satay"},
		{name: "empty falls back", input: "***", expected: "item"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := menuSlug(tc.input); got != tc.expected {
				t.Fatalf("menuSlug(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := sanitizeFilename("AB/12?X"); got != "AB_12_X" {
		t.Fatalf("expected AB_12_X, got %q", got)
	}
}
