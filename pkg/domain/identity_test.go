package domain

import "testing"

func TestValidateClassification(t *testing.T) {
	valid := []string{
		"ET_AUD_PROC_AMP_001",
		"ET_STR_WALL_PNL_042",
		"ET_AUD_PROC_AMP_001_v2",
		"ET_AUD_PROC_AMP_001_r13",
	}
	for _, code := range valid {
		if err := ValidateClassification(code); err != nil {
			t.Fatalf("valid code %q rejected: %v", code, err)
		}
	}

	invalid := []string{
		"",
		"INVALID_FORMAT",
		"ET_AU_PROC_AMP_001",    // second group too short
		"ET_AUD_PROC_AMP_01",    // sequence too short
		"ET_AUD_PROC_AMP_0001",  // sequence too long
		"ET_aud_PROC_AMP_001",   // lowercase group
		"ET_AUD_PROC_AMP_001_x2",
		"ET_AUD_PROC_AMP_001_v",
		"XT_AUD_PROC_AMP_001",
	}
	for _, code := range invalid {
		if err := ValidateClassification(code); err == nil {
			t.Fatalf("invalid code %q accepted", code)
		}
	}
}

func TestValidateVersion(t *testing.T) {
	for _, version := range []string{"1.0.0", "v1.0.0", "0.2.10", "12.0.3"} {
		if err := ValidateVersion(version); err != nil {
			t.Fatalf("valid version %q rejected: %v", version, err)
		}
	}
	for _, version := range []string{"", "invalid.version", "1.0", "1", "1.0.0.0", "one.two.three"} {
		if err := ValidateVersion(version); err == nil {
			t.Fatalf("invalid version %q accepted", version)
		}
	}
}
