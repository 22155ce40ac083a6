package util

import "testing"

func TestNormaliseBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "no trailing slash", input: "https://pipedapi.kavin.rocks", expected: "https://pipedapi.kavin.rocks"},
		{name: "single trailing slash", input: "https://pipedapi.kavin.rocks/", expected: "https://pipedapi.kavin.rocks"},
		{name: "multiple trailing slashes", input: "https://yewtu.be///", expected: "https://yewtu.be"},
		{name: "surrounding whitespace", input: "  https://yewtu.be/ ", expected: "https://yewtu.be"},
		{name: "empty", input: "", expected: ""},
		{name: "path is preserved", input: "https://example.com/api/", expected: "https://example.com/api"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormaliseBaseURL(tt.input); got != tt.expected {
				t.Errorf("NormaliseBaseURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestHTTPSFromDomain(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "yewtu.be", expected: "https://yewtu.be"},
		{input: " inv.nadeko.net ", expected: "https://inv.nadeko.net"},
		{input: "https://already.example/", expected: "https://already.example"},
		{input: "", expected: ""},
	}

	for _, tt := range tests {
		if got := HTTPSFromDomain(tt.input); got != tt.expected {
			t.Errorf("HTTPSFromDomain(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestHostOf(t *testing.T) {
	if got := HostOf("https://pipedapi.kavin.rocks/streams/abc"); got != "pipedapi.kavin.rocks" {
		t.Errorf("got %q", got)
	}
	if got := HostOf("not a url"); got != "not a url" {
		t.Errorf("got %q", got)
	}
}
