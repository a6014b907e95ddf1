package engine

import "strings"

// Unit is a suggested unit of measurement.
type Unit string

const (
    UnitKG      Unit = "KG"
    UnitTons    Unit = "TONS"
    UnitLitres  Unit = "LITRES"
    UnitPCS     Unit = "PCS"
    UnitCartons Unit = "CARTONS"
    UnitPallets Unit = "PALLETS"
    UnitBoxes   Unit = "BOXES"
)

type categoryTraits struct {
    unit       Unit
    special    bool
    perishable bool
}

// categoryRegistry maps the closed set of cargo category codes to their
// default unit and handling flags. Codes follow the operational category
// list (ELEC, FOOD, BLDG, TEXT, AGRI, PHAR, AUTO, FUEL, GENM).
var categoryRegistry = map[string]categoryTraits{
    "ELEC": {unit: UnitPCS, special: true},
    "FOOD": {unit: UnitTons, special: true, perishable: true},
    "BLDG": {unit: UnitTons},
    "TEXT": {unit: UnitCartons},
    "AGRI": {unit: UnitTons, special: true, perishable: true},
    "PHAR": {unit: UnitBoxes, special: true, perishable: true},
    "AUTO": {unit: UnitPCS},
    "FUEL": {unit: UnitLitres},
    "GENM": {unit: UnitPCS},
}

// KnownCategory reports whether code is in the closed category set.
func KnownCategory(code string) bool {
    _, ok := categoryRegistry[strings.ToUpper(strings.TrimSpace(code))]
    return ok
}

// unitHints maps packaging keywords found in free-text descriptions to the
// unit they imply. First match in order wins.
var unitHints = []struct {
    words []string
    unit  Unit
}{
    {[]string{"pallet", "palletized", "palletised"}, UnitPallets},
    {[]string{"litre", "liter", "drum", "jerrican"}, UnitLitres},
    {[]string{"carton"}, UnitCartons},
    {[]string{"box", "boxes"}, UnitBoxes},
    {[]string{"kg bag", "kg bags", " kg "}, UnitKG},
}

// SuggestUnit returns the unit for a category, refined by packaging hints in
// the description. Unrecognized categories fall back to PCS.
func (e *Engine) SuggestUnit(category, description string) Unit {
    text := " " + strings.ToLower(description) + " "
    for _, h := range unitHints {
        if containsAny(text, h.words) {
            return h.unit
        }
    }
    if t, ok := categoryRegistry[strings.ToUpper(strings.TrimSpace(category))]; ok {
        return t.unit
    }
    return UnitPCS
}

func containsAny(s string, words []string) bool {
    for _, w := range words {
        if strings.Contains(s, w) {
            return true
        }
    }
    return false
}
