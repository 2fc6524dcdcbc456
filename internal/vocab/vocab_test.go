package vocab

import (
	"errors"
	"testing"
)

func TestNormalizeSide(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"FRIEND", "FRIEND", false},
		{"friend", "FRIEND", false},
		{" enemy ", "ENEMY", false},
		{"ENNEMY", "ENEMY", false},  // alias: historical misspelling
		{"HOSTILE", "ENEMY", false}, // alias
		{"FR", "FRIEND", false},     // alias: abbreviation
		{"NEUTRAL", "NEUTRAL", false},
		{"UNKNOWN", "UNKNOWN", false},
		{"MARTIAN", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeSide(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeSide(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeSide(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeUnitType(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"INFANTRY", "INFANTRY", false},
		{"INF", "INFANTRY", false},
		{"DRONE", "UAS", false},
		{"RECON", "UAS_RECON", false},
		{"uas_recon", "UAS_RECON", false},
		{"TANKETTE", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeUnitType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeUnitType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeUnitType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeEchelon(t *testing.T) {
	if got, err := NormalizeEchelon("BN"); err != nil || got != "BATTALION" {
		t.Errorf("NormalizeEchelon(BN) = %q, %v", got, err)
	}
	if _, err := NormalizeEchelon("PLATOON"); err == nil {
		t.Error("expected error for PLATOON")
	}
}

func TestValidationError_FieldAndValue(t *testing.T) {
	_, err := NormalizeSide("ENEMMY")
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Field != "side" || verr.Value != "ENEMMY" {
		t.Errorf("field/value: %q/%q", verr.Field, verr.Value)
	}
	// one transposition away from ENEMY: the hint should name it
	if verr.Hint != "ENEMY" {
		t.Errorf("hint: %q, want ENEMY", verr.Hint)
	}
}

func TestDamerauLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "", 3},
		{"", "xy", 2},
		{"ENEMY", "ENEMMY", 1}, // insertion
		{"ENEMY", "ENEMYY", 1},
		{"ab", "ba", 1}, // transposition counts as one edit
		{"kitten", "sitting", 3},
	}
	for _, tt := range tests {
		if got := DamerauLevenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("DamerauLevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
