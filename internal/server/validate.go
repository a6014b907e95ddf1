package server

import "regexp"

// Kenyan-specific field formats, validated at the API boundary.
var (
    // KRA PIN, e.g. P051234567M
    kraPINPattern = regexp.MustCompile(`^[AP]\d{9}[A-Z]$`)
    // Kenyan mobile/landline in international format, e.g. +254712345678
    kenyanPhonePattern = regexp.MustCompile(`^\+254[17]\d{8}$`)
)

func validKRAPIN(pin string) bool { return kraPINPattern.MatchString(pin) }

func validKenyanPhone(phone string) bool { return kenyanPhonePattern.MatchString(phone) }
