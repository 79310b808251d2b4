package parser

import (
	"strings"
	"testing"
)

func TestCleanPrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{name: "thousands separator with currency", input: "1,234.56 MAD", expected: 1234.56},
		{name: "leading currency", input: "Dhs 2,499.00", expected: 2499},
		{name: "surrounding whitespace", input: "  899 Dhs ", expected: 899},
		{name: "comma is never decimal", input: "12,5", expected: 125},
		{name: "empty string", input: "", expected: 0},
		{name: "not available", input: "N/A", expected: 0},
		{name: "lone period", input: ".", expected: 0},
		{name: "several periods", input: "1.2.3", expected: 0},
		{name: "negative sign dropped", input: "-15", expected: 15},
		{name: "overflow", input: strings.Repeat("9", 400), expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanPrice(tt.input); got != tt.expected {
				t.Errorf("CleanPrice(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCleanPriceNeverNegative(t *testing.T) {
	inputs := []string{"-", "--1", "abc", "1e5", "∞", "١٢٣", ",,,", "0.00", "  "}
	for _, in := range inputs {
		if got := CleanPrice(in); got < 0 {
			t.Fatalf("CleanPrice(%q) = %v, want non-negative", in, got)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	if got := NormalizeName("  Tecno Spark 10  "); got != "Tecno Spark 10" {
		t.Fatalf("NormalizeName trimmed = %q", got)
	}
	if got := NormalizeName("   "); got != MissingName {
		t.Fatalf("NormalizeName blank = %q, want %q", got, MissingName)
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name     string
		link     string
		expected string
		wantErr  bool
	}{
		{name: "root relative", link: "/samsung-galaxy-a14.html", expected: "https://www.jumia.ma/samsung-galaxy-a14.html"},
		{name: "absolute passes through", link: "https://cdn.example.test/p.html", expected: "https://cdn.example.test/p.html"},
		{name: "relative without slash passes through", link: "p.html", expected: "p.html"},
		{name: "empty", link: "", expected: ""},
		{name: "malformed", link: "/bad%zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveURL("https://www.jumia.ma/", tt.link)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveURL(%q) error = %v, wantErr %v", tt.link, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Fatalf("ResolveURL(%q) = %q, want %q", tt.link, got, tt.expected)
			}
		})
	}
}
