package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"catalogcore/internal/infra/persistence/memory"
	"catalogcore/pkg/domain"
)

func squareRing(size float64) []domain.Coordinate {
	return []domain.Coordinate{
		{X: 0, Y: 0, Z: 0},
		{X: size, Y: 0, Z: 0},
		{X: size, Y: size, Z: 0},
		{X: 0, Y: size, Z: 0},
		{X: 0, Y: 0, Z: 0},
	}
}

func alignedGeometry() domain.Geometry {
	return domain.Geometry{Rings: [][]domain.Coordinate{squareRing(100)}}
}

func cleanSnapshot() memory.Snapshot {
	return memory.Snapshot{
		Components: map[string]domain.Component{
			"comp-1": {
				Base:           domain.Base{ID: "comp-1"},
				Classification: "ET_AUD_PROC_AMP_001",
				Name:           "line amplifier",
				Version:        "1.0.0",
				FunctionalProperties: map[string]any{
					"acoustic_rating":  42.0,
					"emi_shield_level": 3,
				},
				BaseGeometry: alignedGeometry(),
				IsActive:     true,
			},
		},
		Parameters: map[string]domain.Parameter{
			"param-1": {
				Base:        domain.Base{ID: "param-1"},
				ComponentID: "comp-1",
				Name:        "gain",
				DataType:    domain.DataTypeFloat,
				Units:       "dB",
				ValidRanges: map[string]any{"min": 0.0, "max": 100.0},
			},
		},
		Instances: map[string]domain.ComponentInstance{
			"inst-1": {
				Base:        domain.Base{ID: "inst-1"},
				InternalID:  1,
				ComponentID: "comp-1",
				SpatialData: alignedGeometry(),
				Version:     1,
				Lifecycle:   domain.Lifecycle{Status: domain.StatusPlanned},
			},
		},
	}
}

func writeSnapshot(t *testing.T, snapshot memory.Snapshot) string {
	t.Helper()
	payload, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func TestRunCleanCatalog(t *testing.T) {
	path := writeSnapshot(t, cleanSnapshot())
	violations, err := run(path)
	if err != nil {
		t.Fatalf("run() returned error: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestRunStructuralViolations(t *testing.T) {
	snapshot := cleanSnapshot()
	component := snapshot.Components["comp-1"]
	component.Classification = "NOT_A_CODE"
	delete(component.FunctionalProperties, "emi_shield_level")
	snapshot.Components["comp-1"] = component

	path := writeSnapshot(t, snapshot)
	violations, err := run(path)
	if err != nil {
		t.Fatalf("run() returned error: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %v", violations)
	}
	for _, v := range violations {
		if v.Rule != structuralRuleName {
			t.Fatalf("expected structural rule, got %q", v.Rule)
		}
		if v.EntityID != "comp-1" {
			t.Fatalf("expected comp-1, got %q", v.EntityID)
		}
	}
}

func TestRunRuleViolations(t *testing.T) {
	snapshot := cleanSnapshot()
	instance := snapshot.Instances["inst-1"]
	instance.Lifecycle.Status = "retired"
	snapshot.Instances["inst-1"] = instance
	snapshot.Instances["inst-ghost"] = domain.ComponentInstance{
		Base:        domain.Base{ID: "inst-ghost"},
		InternalID:  2,
		ComponentID: "ghost",
		SpatialData: alignedGeometry(),
		Version:     1,
		Lifecycle:   domain.Lifecycle{Status: domain.StatusPlanned},
	}

	path := writeSnapshot(t, snapshot)
	violations, err := run(path)
	if err != nil {
		t.Fatalf("run() returned error: %v", err)
	}
	var lifecycle, referential bool
	for _, v := range violations {
		if v.Rule == "lifecycle_validity" && v.EntityID == "inst-1" {
			lifecycle = true
		}
		if v.Rule == "referential_integrity" && v.EntityID == "inst-ghost" {
			referential = true
		}
	}
	if !lifecycle {
		t.Fatalf("expected lifecycle_validity violation for inst-1, got %v", violations)
	}
	if !referential {
		t.Fatalf("expected referential_integrity violation for inst-ghost, got %v", violations)
	}
}

func TestRunMissingFile(t *testing.T) {
	if _, err := run(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error when file is missing")
	}
}

func TestRunMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := run(path); err == nil || !strings.Contains(err.Error(), "parse catalog") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestCLIExitCodes(t *testing.T) {
	cleanPath := writeSnapshot(t, cleanSnapshot())

	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-catalog", cleanPath}, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Catalog validation passed.") {
		t.Fatalf("expected pass message, got %q", stdout.String())
	}

	broken := cleanSnapshot()
	component := broken.Components["comp-1"]
	component.Version = "one"
	broken.Components["comp-1"] = component
	brokenPath := writeSnapshot(t, broken)

	stdout.Reset()
	stderr.Reset()
	if code := cli([]string{"-catalog", brokenPath}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stdout.String(), structuralRuleName) {
		t.Fatalf("expected violation listing, got %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "violation(s)") {
		t.Fatalf("expected failure summary, got %q", stderr.String())
	}

	stdout.Reset()
	stderr.Reset()
	if code := cli([]string{"-nope"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2 for bad flag, got %d", code)
	}
}
