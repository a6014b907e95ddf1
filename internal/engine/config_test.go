package engine

import (
    "os"
    "path/filepath"
    "testing"
)

func TestDefaultConfigValidates(t *testing.T) {
    if err := DefaultConfig().Validate(); err != nil {
        t.Fatalf("defaults should validate: %v", err)
    }
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
    path := filepath.Join(t.TempDir(), "engine.yaml")
    body := "urgent_value_kes: 8000000\nrail_weight_kg: 15000\n"
    if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
        t.Fatal(err)
    }

    cfg, err := LoadConfig(path)
    if err != nil {
        t.Fatalf("LoadConfig: %v", err)
    }
    if cfg.UrgentValueKES != 8_000_000 {
        t.Fatalf("urgent_value_kes = %v, want 8000000", cfg.UrgentValueKES)
    }
    if cfg.RailWeightKG != 15_000 {
        t.Fatalf("rail_weight_kg = %v, want 15000", cfg.RailWeightKG)
    }
    // Untouched fields keep defaults.
    if cfg.SafetyBuffer != 1.10 {
        t.Fatalf("safety_buffer = %v, want 1.10", cfg.SafetyBuffer)
    }

    // A retuned engine honors the new rail threshold.
    eng := New(cfg)
    if mode, _ := eng.SelectTransport(Draft{WeightKG: d(16_000)}); mode != ModeRail {
        t.Fatalf("16t with 15t threshold: got %s, want RAIL", mode)
    }
}

func TestLoadConfig_RejectsInvertedThresholds(t *testing.T) {
    path := filepath.Join(t.TempDir(), "engine.yaml")
    body := "urgent_value_kes: 500000\n" // below the default high threshold
    if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
        t.Fatal(err)
    }
    if _, err := LoadConfig(path); err == nil {
        t.Fatal("expected validation error for inverted thresholds")
    }
}

func TestLoadConfig_MissingFile(t *testing.T) {
    if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
        t.Fatal("expected error for missing file")
    }
}

func TestConfigValidate(t *testing.T) {
    cases := []struct {
        name   string
        mutate func(*Config)
    }{
        {"buffer below one", func(c *Config) { c.SafetyBuffer = 0.9 }},
        {"inverted weight tiers", func(c *Config) { c.WeightTier2KG = 1_000 }},
        {"zero base hours", func(c *Config) { c.RoadBaseHours = 0 }},
        {"high above urgent", func(c *Config) { c.HighValueKES = 6_000_000 }},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            cfg := DefaultConfig()
            tc.mutate(&cfg)
            if err := cfg.Validate(); err == nil {
                t.Fatal("expected validation error")
            }
        })
    }
}
