// Copyright (C) 2025 Fathom ML (oss@fathomml.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package hints

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Recipe
	}{
		{"empty text defaults", "", Linear{}},
		{"unrecognized text defaults", "something entirely unrelated", Linear{}},
		{"linear in x3", "linear in x3", Linear{}},
		{"quadratic in x2", "quadratic in x2", Polynomial{Degree: 2}},
		{"polynomial keyword", "a polynomial relationship", Polynomial{Degree: 2}},
		{"cubic", "cubic in x1", Polynomial{Degree: 3}},
		{"cubic overwrites quadratic", "quadratic, maybe cubic in x2", Polynomial{Degree: 3}},
		{"periodic default harmonic", "periodic in x2", Periodic{Dim: 2, Harmonics: 1}},
		{"periodic three peaks", "periodic in x1 with three peaks", Periodic{Dim: 1, Harmonics: 3}},
		{"periodic high frequency", "a high frequency sinusoid in x2", Periodic{Dim: 2, Harmonics: 3}},
		{"periodic two peaks", "wave in x1 with two peaks", Periodic{Dim: 1, Harmonics: 2}},
		{"periodic 2 peak marker", "oscillation in x2, 2 peaks", Periodic{Dim: 2, Harmonics: 2}},
		{"periodic overrides polynomial", "quadratic but also periodic in x1", Periodic{Dim: 1, Harmonics: 1}},
		{"flat then rising fallback", "flat at first, then rising", Polynomial{Degree: 2}},
		{"flat then does not override polynomial degree", "cubic, flat then rising", Polynomial{Degree: 3}},
		{"case insensitive", "PERIODIC in X1", Periodic{Dim: 1, Harmonics: 1}},
		{"linear combination end to end hint", "linear combination of the input features with some noise", Linear{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text)
			if got != tt.want {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}

// TestParse_DimensionTieBreak pins the shipped overwrite order: x1, x2 and
// x3 are tested independently, so the highest-numbered marker present wins.
func TestParse_DimensionTieBreak(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"x1 only", "periodic in x1", 1},
		{"x1 and x2", "periodic in x1 or x2", 2},
		{"x1 and x3", "periodic in x1 or x3", 3},
		{"all three", "periodic in x1, x2 or x3", 3},
		{"no marker defaults to 3", "periodic signal", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.text).(Periodic)
			if !ok {
				t.Fatalf("Parse(%q) = %#v, want Periodic", tt.text, Parse(tt.text))
			}
			if got.Dim != tt.want {
				t.Errorf("Parse(%q).Dim = %d, want %d", tt.text, got.Dim, tt.want)
			}
		})
	}
}

func TestConstructorClamping(t *testing.T) {
	if got := NewPolynomial(7).Degree; got != MaxDegree {
		t.Errorf("NewPolynomial(7).Degree = %d, want %d", got, MaxDegree)
	}
	if got := NewPolynomial(0).Degree; got != MinDegree {
		t.Errorf("NewPolynomial(0).Degree = %d, want %d", got, MinDegree)
	}
	if got := NewPeriodic(1, 9).Harmonics; got != MaxHarmonics {
		t.Errorf("NewPeriodic(1, 9).Harmonics = %d, want %d", got, MaxHarmonics)
	}
	if got := NewPeriodic(1, -2).Harmonics; got != MinHarmonics {
		t.Errorf("NewPeriodic(1, -2).Harmonics = %d, want %d", got, MinHarmonics)
	}
}

func TestKindNames(t *testing.T) {
	if (Linear{}).Kind() != "linear" {
		t.Error("Linear kind mismatch")
	}
	if (Polynomial{Degree: 2}).Kind() != "polynomial" {
		t.Error("Polynomial kind mismatch")
	}
	if (Periodic{Dim: 1, Harmonics: 1}).Kind() != "periodic" {
		t.Error("Periodic kind mismatch")
	}
}
