package validation

import (
	"strings"
	"testing"
)

func TestValidateAircraftModel(t *testing.T) {
	tests := []struct {
		name    string
		model   string
		wantErr bool
	}{
		// Valid identifiers
		{"simple", "Volocity", false},
		{"single char", "A", false},
		{"with digits", "EH216", false},
		{"underscore separator", "Joby_S4", false},
		{"hyphen separator", "VX4-prototype", false},

		// Invalid identifiers
		{"empty", "", true},
		{"path traversal", "../../etc/passwd", true},
		{"spaces", "Joby S4", true},
		{"shell chars", "model;rm -rf", true},
		{"starts with hyphen", "-VX4", true},
		{"too long", strings.Repeat("A", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAircraftModel(tt.model)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAircraftModel(%q) error = %v, wantErr %v", tt.model, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeAircraftModel(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  string
	}{
		{"uppercase passthrough", "VOLOCITY", "VOLOCITY"},
		{"lowercase normalized", "volocity", "VOLOCITY"},
		{"spaces to underscores", "joby s4", "JOBY_S4"},
		{"special chars dropped", "eh-216!@#", "EH-216"},
		{"trims separators", "__vx4__", "VX4"},
		{"empty falls back", "", "001"},
		{"only garbage falls back", "!!!", "001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeAircraftModel(tt.model); got != tt.want {
				t.Errorf("SanitizeAircraftModel(%q) = %q, want %q", tt.model, got, tt.want)
			}
		})
	}
}
