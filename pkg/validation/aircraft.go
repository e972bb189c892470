// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for user-supplied
// identifiers.
//
// This package contains validators for inputs that end up in file names,
// layer names, or generated configuration. Using these validators prevents
// path traversal and keeps generated identifiers filesystem-safe.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// aircraftPattern matches valid aircraft model identifiers.
// Allows: letters, digits, underscores, hyphens
// Max length: 64 characters
var aircraftPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]{0,63}$`)

// nonAlphanumeric strips anything that is not a letter, digit, underscore,
// or hyphen during sanitization.
var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9_\-]+`)

// ValidateAircraftModel validates an aircraft model identifier.
//
// Valid identifiers:
//   - 1-64 characters
//   - Letters, digits
//   - Underscores (_) and hyphens (-) as separators
//
// Returns an error if the identifier is invalid.
//
// Example:
//
//	if err := validation.ValidateAircraftModel(model); err != nil {
//	    return nil, fmt.Errorf("invalid aircraft model: %w", err)
//	}
//	// Safe to embed in file names and layer names
func ValidateAircraftModel(model string) error {
	if model == "" {
		return fmt.Errorf("aircraft model cannot be empty")
	}

	if !aircraftPattern.MatchString(model) {
		return fmt.Errorf("invalid aircraft model: %q (must be 1-64 alphanumeric chars, underscores, or hyphens)", model)
	}

	return nil
}

// SanitizeAircraftModel coerces free text into a safe aircraft identifier.
// Spaces become underscores, disallowed characters are dropped, and an
// identifier that sanitizes to nothing falls back to "001" so downstream
// naming never produces an empty component.
//
//	safeModel := validation.SanitizeAircraftModel(userInput)
//	// safeModel is uppercase and filesystem-safe
func SanitizeAircraftModel(model string) string {
	s := strings.TrimSpace(model)
	s = strings.ReplaceAll(s, " ", "_")
	s = nonAlphanumeric.ReplaceAllString(s, "")
	s = strings.Trim(s, "_-")
	if s == "" {
		return "001"
	}
	if len(s) > 64 {
		s = s[:64]
	}
	return strings.ToUpper(s)
}
