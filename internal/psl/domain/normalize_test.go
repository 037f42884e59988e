package domain

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "example.com", "example.com"},
		{"leading dot", ".com", "com"},
		{"only one leading dot dropped", "..com", ".com"},
		{"uppercase", "ExAmPlE.CoM", "example.com"},
		{"trailing comment", "co.uk  // United Kingdom", "co.uk"},
		{"tab separated", "jp\tsomething", "jp"},
		{"surrounding whitespace", "  net  ", "net"},
		{"wildcard kept", "*.ck", "*.ck"},
		{"unicode lowercased", "ÉXAMPLE.Рф", "éxample.рф"},
		{"empty", "", ""},
		{"whitespace only", " \t ", ""},
		{"dot only", ".", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_InvalidUTF8(t *testing.T) {
	_, err := Normalize("bad\xff.com")
	if !errors.Is(err, ErrDecoding) {
		t.Fatalf("expected ErrDecoding, got %v", err)
	}
}

func TestNormalize_StableForSingleLeadingDot(t *testing.T) {
	for _, in := range []string{".COM", "www.Example.com extra", "  *.uk", "parliament.uk"} {
		first, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		second, err := Normalize(first)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", first, err)
		}
		if first != second {
			t.Errorf("Normalize changed %q on a second pass: %q then %q", in, first, second)
		}
	}
}

// Only one leading dot is stripped, so normalizing twice is not the same as
// normalizing once for inputs starting with "..".
func TestNormalize_StripsOneLeadingDot(t *testing.T) {
	first, err := Normalize("..COM")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if first != ".com" {
		t.Fatalf("Normalize(..COM) = %q, want .com", first)
	}
	second, err := Normalize(first)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if second != "com" {
		t.Fatalf("Normalize(.com) = %q, want com", second)
	}
}
