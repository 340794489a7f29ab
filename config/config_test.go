package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if cfg.Topology.Policy != "ordered" {
		t.Errorf("default policy = %q, want ordered", cfg.Topology.Policy)
	}
	if cfg.Topology.NormalStrategy != "fan" {
		t.Errorf("default normal strategy = %q, want fan", cfg.Topology.NormalStrategy)
	}
	if cfg.Growth.SplitThreshold != 100 {
		t.Errorf("default split threshold = %v, want 100", cfg.Growth.SplitThreshold)
	}
	if cfg.Growth.RestLength != 0 {
		t.Errorf("default rest length = %v, want 0 (derived)", cfg.Growth.RestLength)
	}
	if cfg.Index.GridCellFactor != 2.0 {
		t.Errorf("default grid cell factor = %v, want 2.0", cfg.Index.GridCellFactor)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	override := []byte("growth:\n  split_threshold: 42\ntopology:\n  policy: unordered\n")
	if err := os.WriteFile(path, override, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Growth.SplitThreshold != 42 {
		t.Errorf("split threshold = %v, want 42", cfg.Growth.SplitThreshold)
	}
	if cfg.Topology.Policy != "unordered" {
		t.Errorf("policy = %q, want unordered", cfg.Topology.Policy)
	}
	// Fields absent from the override keep their defaults.
	if cfg.Growth.SpringFactor == 0 {
		t.Error("spring factor lost its default")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad policy", "topology:\n  policy: spiral\n"},
		{"bad normal strategy", "topology:\n  normal_strategy: guess\n"},
		{"bad food mode", "growth:\n  food_mode: none\n"},
		{"zero threshold", "growth:\n  split_threshold: 0\n"},
		{"negative grid factor", "index:\n  grid_cell_factor: -1\n"},
		{"zero frame interval", "server:\n  frame_every: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Growth.SplitThreshold = 77

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load written config: %v", err)
	}
	if got.Growth.SplitThreshold != 77 {
		t.Errorf("round-tripped threshold = %v, want 77", got.Growth.SplitThreshold)
	}
}
