// Copyright (C) 2025 Fathom ML (oss@fathomml.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package hints turns free-text descriptions of a functional relationship
// into a structured feature recipe.
//
// # Description
//
// The parser is a fixed, ordered list of keyword rules over short phrases
// like "linear in x3", "quadratic in x2", or "periodic in x1 with two
// peaks". Later rules overwrite earlier ones; that ordering is part of the
// observable contract (see Parse). Unrecognized text yields the default
// linear recipe, so parsing never fails.
//
// # Thread Safety
//
// Parse is a pure function with no shared state; safe for concurrent use.
package hints

import "strings"

// Bounds for the clamped recipe parameters. Degrees and harmonics are capped
// conservatively so the model stays stable on tiny observation sets.
const (
	MinDegree    = 1
	MaxDegree    = 3
	MinHarmonics = 1
	MaxHarmonics = 3
)

// Recipe is a closed description of the feature expansion to apply.
//
// Exactly three variants exist: Linear, Polynomial, and Periodic. Each
// variant carries only the parameters its expansion needs, and all bounded
// fields are clamped into range at construction. A Recipe is immutable once
// produced.
type Recipe interface {
	// Kind returns the recipe family name: "linear", "polynomial" or
	// "periodic".
	Kind() string

	sealed()
}

// Linear leaves the raw input columns unchanged.
type Linear struct{}

// Kind returns "linear".
func (Linear) Kind() string { return "linear" }
func (Linear) sealed()      {}

// Polynomial expands all input columns up to a total degree.
type Polynomial struct {
	// Degree is the maximum total degree of the expansion, in [1,3].
	Degree int
}

// NewPolynomial returns a Polynomial recipe with the degree clamped into
// [MinDegree, MaxDegree].
func NewPolynomial(degree int) Polynomial {
	return Polynomial{Degree: clamp(degree, MinDegree, MaxDegree)}
}

// Kind returns "polynomial".
func (Polynomial) Kind() string { return "polynomial" }
func (Polynomial) sealed()      {}

// Periodic appends a Fourier expansion of one selected input dimension to
// the raw columns.
type Periodic struct {
	// Dim is the 1-based input column the sinusoids are built from.
	Dim int

	// Harmonics is the number of frequency multiples included, in [1,3].
	Harmonics int
}

// NewPeriodic returns a Periodic recipe with harmonics clamped into
// [MinHarmonics, MaxHarmonics]. Dim is constrained to {1,2,3} by the parser;
// whether it fits the actual input width is checked at expansion time.
func NewPeriodic(dim, harmonics int) Periodic {
	return Periodic{Dim: dim, Harmonics: clamp(harmonics, MinHarmonics, MaxHarmonics)}
}

// Kind returns "periodic".
func (Periodic) Kind() string { return "periodic" }
func (Periodic) sealed()      {}

// Parse converts a natural-language hint into a Recipe.
//
// # Description
//
// Rules are applied in a fixed order and later rules may overwrite earlier
// decisions:
//
//  1. Defaults: linear, degree 1, dim 3, one harmonic.
//  2. Dimension markers "x1", "x2", "x3" are tested independently in that
//     order; each match overwrites dim, so when several markers co-occur the
//     highest-numbered one wins. That tie-break is preserved deliberately
//     from the shipped behavior rather than collapsed into a single choice.
//  3. "quadratic" or "polynomial" selects a degree-2 polynomial; "cubic"
//     runs after and overwrites the degree to 3.
//  4. Any of "periodic", "sinusoid", "oscillation", "wave" overrides the
//     kind to periodic. Harmonics: 3 for "high"/"three peak(s)", else 2 for
//     "two"/"2 peak", else 1.
//  5. Vague "flat ... then ..." phrasing upgrades a still-linear recipe to a
//     degree-2 polynomial.
//  6. Degree and harmonics are clamped into [1,3] at construction.
//
// # Inputs
//
//   - text: free-text hint; matching is case-insensitive. Empty text yields
//     the default linear recipe.
//
// # Outputs
//
//   - Recipe: never nil; parsing never fails.
func Parse(text string) Recipe {
	s := strings.ToLower(text)

	kind := "linear"
	degree := 1
	dim := 3
	harmonics := 1

	// Independent, non-exclusive checks: each overwrites dim unconditionally.
	if strings.Contains(s, "x1") {
		dim = 1
	}
	if strings.Contains(s, "x2") {
		dim = 2
	}
	if strings.Contains(s, "x3") {
		dim = 3
	}

	if strings.Contains(s, "quadratic") || strings.Contains(s, "polynomial") {
		kind, degree = "polynomial", 2
	}
	if strings.Contains(s, "cubic") {
		kind, degree = "polynomial", 3
	}

	for _, w := range []string{"periodic", "sinusoid", "oscillation", "wave"} {
		if strings.Contains(s, w) {
			kind = "periodic"
			switch {
			case strings.Contains(s, "high") || strings.Contains(s, "three peak"):
				harmonics = 3
			case strings.Contains(s, "two") || strings.Contains(s, "2 peak"):
				harmonics = 2
			default:
				harmonics = 1
			}
			break
		}
	}

	// Vague piecewise hints ("flat then rising") get mild curvature.
	if kind == "linear" && strings.Contains(s, "flat") && strings.Contains(s, "then") {
		kind, degree = "polynomial", 2
	}

	switch kind {
	case "polynomial":
		return NewPolynomial(degree)
	case "periodic":
		return NewPeriodic(dim, harmonics)
	default:
		return Linear{}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
