package engine

import (
    "fmt"
    "time"

    "github.com/shopspring/decimal"
)

// Priority is the handling tier suggested for a shipment.
type Priority string

const (
    PriorityLow    Priority = "LOW"
    PriorityMedium Priority = "MEDIUM"
    PriorityHigh   Priority = "HIGH"
    PriorityUrgent Priority = "URGENT"
)

// TransportMode is the suggested carriage mode.
type TransportMode string

const (
    ModeRoad       TransportMode = "ROAD"
    ModeRail       TransportMode = "RAIL"
    ModeAir        TransportMode = "AIR"
    ModeMultimodal TransportMode = "MULTIMODAL"
)

// Draft carries the raw shipment attributes the caller gathered. The engine
// never mutates it and keeps no state between calls.
type Draft struct {
    Category        string
    SpecialHandling bool
    DeclaredValue   decimal.Decimal // KES
    WeightKG        decimal.Decimal
    VolumeCBM       decimal.Decimal // zero when not supplied
    Description     string
    InterCounty     bool
    TimeCritical    bool
    Reliability     decimal.Decimal // supplier score, 0-100
    Dispatch        time.Time       // zero when unknown
}

// Estimate is the delivery-time result for one shipment.
type Estimate struct {
    TotalHours      decimal.Decimal
    ExpectedArrival *time.Time
}

// Reasoning explains each suggested field in operator-readable text.
type Reasoning struct {
    Priority      string `json:"priority"`
    TransportMode string `json:"transport_mode"`
    DeliveryTime  string `json:"delivery_time"`
}

// Bundle is the engine's complete output for one request.
type Bundle struct {
    Priority        Priority
    TransportMode   TransportMode
    Unit            Unit
    TotalHours      decimal.Decimal
    ExpectedArrival *time.Time
    Reasoning       Reasoning
}

// ValidationError names the offending input field.
type ValidationError struct {
    Field   string
    Message string
}

func (e *ValidationError) Error() string {
    return e.Field + ": " + e.Message
}

// Engine evaluates the suggestion rules against a Config. It is pure and
// safe for concurrent use.
type Engine struct {
    cfg Config
}

func New(cfg Config) *Engine { return &Engine{cfg: cfg} }

// NewDefault returns an engine with the production thresholds.
func NewDefault() *Engine { return New(DefaultConfig()) }

// Config returns the thresholds the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// ValidateDraft checks the numeric inputs before any rule runs. It returns
// the first violation found, naming the field.
func ValidateDraft(d Draft) error {
    if d.DeclaredValue.IsNegative() {
        return &ValidationError{Field: "declared_value", Message: "must not be negative"}
    }
    if d.WeightKG.IsNegative() {
        return &ValidationError{Field: "weight_kg", Message: "must not be negative"}
    }
    if d.VolumeCBM.IsNegative() {
        return &ValidationError{Field: "volume_cbm", Message: "must not be negative"}
    }
    return nil
}

// Suggest runs all four rule sets and assembles the bundle. The dispatch
// date is optional: without it the arrival estimate is skipped while the
// other suggestions are still produced.
func (e *Engine) Suggest(d Draft) Bundle {
    priority, priorityWhy := e.ClassifyPriority(d)
    mode, modeWhy := e.SelectTransport(d)
    est, estWhy := e.EstimateDelivery(mode, d)
    return Bundle{
        Priority:        priority,
        TransportMode:   mode,
        Unit:            e.SuggestUnit(d.Category, d.Description),
        TotalHours:      est.TotalHours,
        ExpectedArrival: est.ExpectedArrival,
        Reasoning: Reasoning{
            Priority:      priorityWhy,
            TransportMode: modeWhy,
            DeliveryTime:  estWhy,
        },
    }
}

// ClassifyPriority applies the priority rules top-down, first match wins.
// Thresholds are exclusive lower bounds: a value exactly at a threshold
// falls to the lower tier.
func (e *Engine) ClassifyPriority(d Draft) (Priority, string) {
    value := d.DeclaredValue
    if value.GreaterThan(dec(e.cfg.UrgentValueKES)) {
        return PriorityUrgent, fmt.Sprintf(
            "declared value KES %s exceeds the urgent threshold of KES %s",
            value.StringFixed(2), dec(e.cfg.UrgentValueKES).StringFixed(0))
    }
    if e.perishable(d) && value.GreaterThan(dec(e.cfg.HighValueKES)) {
        return PriorityUrgent, fmt.Sprintf(
            "%s cargo requires special handling and its declared value KES %s is above KES %s",
            d.Category, value.StringFixed(2), dec(e.cfg.HighValueKES).StringFixed(0))
    }
    if value.GreaterThan(dec(e.cfg.HighValueKES)) {
        return PriorityHigh, fmt.Sprintf(
            "declared value KES %s exceeds the high-priority threshold of KES %s",
            value.StringFixed(2), dec(e.cfg.HighValueKES).StringFixed(0))
    }
    if e.specialHandling(d) {
        return PriorityHigh, fmt.Sprintf("category %s requires special handling", d.Category)
    }
    if d.Reliability.GreaterThan(dec(e.cfg.ReliableScore)) && e.largeShipment(d) {
        return PriorityHigh, fmt.Sprintf(
            "large shipment from a supplier with reliability score %s (above %s)",
            d.Reliability.StringFixed(1), dec(e.cfg.ReliableScore).StringFixed(0))
    }
    if value.GreaterThan(dec(e.cfg.LowValueCeilingKES)) {
        return PriorityMedium, "standard shipment; no urgency or special-handling rule applies"
    }
    return PriorityLow, fmt.Sprintf(
        "declared value KES %s is at or below KES %s with no special handling",
        value.StringFixed(2), dec(e.cfg.LowValueCeilingKES).StringFixed(0))
}

// largeShipment is the HIGH rule's "large by weight/value" test.
func (e *Engine) largeShipment(d Draft) bool {
    return d.WeightKG.GreaterThan(dec(e.cfg.LargeWeightKG)) ||
        d.DeclaredValue.GreaterThan(dec(e.cfg.LargeValueKES))
}

func (e *Engine) specialHandling(d Draft) bool {
    if d.SpecialHandling {
        return true
    }
    t, ok := categoryRegistry[d.Category]
    return ok && t.special
}

// perishable covers the food/medicine categories whose special handling
// upgrades a high-value shipment to URGENT.
func (e *Engine) perishable(d Draft) bool {
    t, ok := categoryRegistry[d.Category]
    return ok && t.perishable
}

// SelectTransport picks the carriage mode. The multimodal conjunction is
// checked before the rail rule; rail fires on any single condition and
// would otherwise shadow it. Air is never auto-selected: it is reserved for
// the caller's explicit time-critical flag on light shipments.
func (e *Engine) SelectTransport(d Draft) (TransportMode, string) {
    weight := d.WeightKG
    volume := d.VolumeCBM
    railWeight := dec(e.cfg.RailWeightKG)
    railVolume := dec(e.cfg.RailVolumeCBM)

    if d.TimeCritical && weight.LessThan(dec(e.cfg.AirMaxWeightKG)) {
        return ModeAir, fmt.Sprintf(
            "time-critical shipment under %s kg; air freight requested by operator preference",
            dec(e.cfg.AirMaxWeightKG).StringFixed(0))
    }
    if weight.GreaterThanOrEqual(railWeight) && volume.GreaterThanOrEqual(railVolume) && d.InterCounty {
        return ModeMultimodal, fmt.Sprintf(
            "inter-county shipment is both heavy (%s kg) and bulky (%s m3); combined rail and road legs advised",
            weight.StringFixed(0), volume.StringFixed(1))
    }
    if weight.GreaterThanOrEqual(railWeight) {
        return ModeRail, fmt.Sprintf(
            "weight %s kg is at or above the %s kg rail threshold",
            weight.StringFixed(0), railWeight.StringFixed(0))
    }
    if volume.GreaterThanOrEqual(railVolume) {
        return ModeRail, fmt.Sprintf(
            "volume %s m3 is at or above the %s m3 rail threshold",
            volume.StringFixed(1), railVolume.StringFixed(0))
    }
    if d.InterCounty && weight.GreaterThan(dec(e.cfg.HeavyHaulWeightKG)) {
        return ModeRail, fmt.Sprintf(
            "inter-county heavy haul above %s kg", dec(e.cfg.HeavyHaulWeightKG).StringFixed(0))
    }
    if d.InterCounty {
        return ModeRoad, "inter-county shipment below rail thresholds; road transport is standard"
    }
    return ModeRoad, "same-county shipment; road transport is standard"
}

// EstimateDelivery computes total hours and the arrival timestamp:
// (base + weight band + route adjustment) x safety buffer, rounded to one
// decimal place of hours. Weight bands are tier-replacing, not cumulative.
func (e *Engine) EstimateDelivery(mode TransportMode, d Draft) (Estimate, string) {
    base := e.baseHours(mode)
    hours := base

    var weightAdj float64
    switch {
    case d.WeightKG.GreaterThanOrEqual(dec(e.cfg.WeightTier2KG)):
        weightAdj = e.cfg.WeightTier2Hours
    case d.WeightKG.GreaterThanOrEqual(dec(e.cfg.WeightTier1KG)):
        weightAdj = e.cfg.WeightTier1Hours
    }
    hours = hours.Add(dec(weightAdj))

    var routeAdj float64
    if d.InterCounty {
        routeAdj = e.cfg.InterCountyHours
    }
    hours = hours.Add(dec(routeAdj))

    total := hours.Mul(decimal.NewFromFloat(e.cfg.SafetyBuffer)).Round(1)

    why := fmt.Sprintf(
        "%s base %sh, weight adjustment %sh, route adjustment %sh, %s%% safety buffer: %sh total",
        mode, base.StringFixed(0), dec(weightAdj).StringFixed(0), dec(routeAdj).StringFixed(0),
        decimal.NewFromFloat((e.cfg.SafetyBuffer-1)*100).Round(0).String(), total.String())

    if d.Dispatch.IsZero() {
        return Estimate{TotalHours: total},
            "dispatch date not provided; arrival estimate unavailable (" + why + ")"
    }
    arrival := d.Dispatch.Add(hoursToDuration(total))
    return Estimate{TotalHours: total, ExpectedArrival: &arrival}, why
}

func (e *Engine) baseHours(mode TransportMode) decimal.Decimal {
    switch mode {
    case ModeRail:
        return dec(e.cfg.RailBaseHours)
    case ModeAir:
        return dec(e.cfg.AirBaseHours)
    case ModeMultimodal:
        // Treated as rail-equivalent; multi-leg routing is not modelled.
        return dec(e.cfg.MultimodalBaseHours)
    default:
        return dec(e.cfg.RoadBaseHours)
    }
}

// hoursToDuration converts one-decimal hours exactly: 0.1h is 360s, so the
// rounded total always maps to whole seconds.
func hoursToDuration(hours decimal.Decimal) time.Duration {
    seconds := hours.Mul(decimal.NewFromInt(3600))
    return time.Duration(seconds.IntPart()) * time.Second
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }
