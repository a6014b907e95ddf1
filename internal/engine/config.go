package engine

import (
    "errors"
    "fmt"
    "os"

    "gopkg.in/yaml.v3"
)

// Config holds every threshold the suggestion rules compare against.
// Values are tunable per deployment via a YAML file so the business can
// retune tiers without code changes.
type Config struct {
    // Priority thresholds (KES unless stated). Comparisons are strict:
    // a value exactly at a threshold falls to the lower tier.
    UrgentValueKES     float64 `yaml:"urgent_value_kes"`
    HighValueKES       float64 `yaml:"high_value_kes"`
    LowValueCeilingKES float64 `yaml:"low_value_ceiling_kes"`
    ReliableScore      float64 `yaml:"reliable_score"`
    LargeWeightKG      float64 `yaml:"large_weight_kg"`
    LargeValueKES      float64 `yaml:"large_value_kes"`

    // Transport thresholds. Rail thresholds are inclusive (>=).
    RailWeightKG      float64 `yaml:"rail_weight_kg"`
    RailVolumeCBM     float64 `yaml:"rail_volume_cbm"`
    HeavyHaulWeightKG float64 `yaml:"heavy_haul_weight_kg"`
    AirMaxWeightKG    float64 `yaml:"air_max_weight_kg"`

    // Delivery estimation.
    RoadBaseHours       float64 `yaml:"road_base_hours"`
    RailBaseHours       float64 `yaml:"rail_base_hours"`
    AirBaseHours        float64 `yaml:"air_base_hours"`
    MultimodalBaseHours float64 `yaml:"multimodal_base_hours"`
    WeightTier1KG       float64 `yaml:"weight_tier1_kg"`
    WeightTier1Hours    float64 `yaml:"weight_tier1_hours"`
    WeightTier2KG       float64 `yaml:"weight_tier2_kg"`
    WeightTier2Hours    float64 `yaml:"weight_tier2_hours"`
    InterCountyHours    float64 `yaml:"inter_county_hours"`
    SafetyBuffer        float64 `yaml:"safety_buffer"`
}

// DefaultConfig returns the production defaults for Kenyan logistics
// operations.
func DefaultConfig() Config {
    return Config{
        UrgentValueKES:     5_000_000,
        HighValueKES:       1_000_000,
        LowValueCeilingKES: 50_000,
        ReliableScore:      80,
        LargeWeightKG:      10_000,
        LargeValueKES:      500_000,

        RailWeightKG:      20_000,
        RailVolumeCBM:     50,
        HeavyHaulWeightKG: 50_000,
        AirMaxWeightKG:    100,

        RoadBaseHours:       24,
        RailBaseHours:       48,
        AirBaseHours:        6,
        MultimodalBaseHours: 48,
        WeightTier1KG:       5_000,
        WeightTier1Hours:    6,
        WeightTier2KG:       10_000,
        WeightTier2Hours:    12,
        InterCountyHours:    12,
        SafetyBuffer:        1.10,
    }
}

// LoadConfig reads YAML overrides from path on top of the defaults.
// Fields omitted from the file keep their default values.
func LoadConfig(path string) (Config, error) {
    cfg := DefaultConfig()
    data, err := os.ReadFile(path)
    if err != nil {
        return cfg, err
    }
    if err := yaml.Unmarshal(data, &cfg); err != nil {
        return cfg, fmt.Errorf("parse engine config %s: %w", path, err)
    }
    if err := cfg.Validate(); err != nil {
        return cfg, fmt.Errorf("engine config %s: %w", path, err)
    }
    return cfg, nil
}

// Validate rejects configurations the rules cannot evaluate sensibly.
func (c Config) Validate() error {
    if c.UrgentValueKES <= c.HighValueKES {
        return errors.New("urgent_value_kes must exceed high_value_kes")
    }
    if c.HighValueKES <= c.LowValueCeilingKES {
        return errors.New("high_value_kes must exceed low_value_ceiling_kes")
    }
    if c.SafetyBuffer < 1 {
        return errors.New("safety_buffer must be at least 1")
    }
    if c.WeightTier2KG < c.WeightTier1KG {
        return errors.New("weight_tier2_kg must be at least weight_tier1_kg")
    }
    for name, v := range map[string]float64{
        "road_base_hours":       c.RoadBaseHours,
        "rail_base_hours":       c.RailBaseHours,
        "air_base_hours":        c.AirBaseHours,
        "multimodal_base_hours": c.MultimodalBaseHours,
    } {
        if v <= 0 {
            return fmt.Errorf("%s must be positive", name)
        }
    }
    return nil
}
