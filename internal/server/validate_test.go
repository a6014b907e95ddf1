package server

import "testing"

func TestValidKRAPIN(t *testing.T) {
    valid := []string{"P051234567M", "A000000001Z", "P999999999A"}
    for _, pin := range valid {
        if !validKRAPIN(pin) {
            t.Errorf("%q should be valid", pin)
        }
    }
    invalid := []string{
        "",
        "B051234567M", // wrong leading letter
        "P05123456M",  // too few digits
        "P0512345678M",
        "P051234567m", // lowercase suffix
        "p051234567M",
        "P051234567",  // missing suffix
        " P051234567M",
    }
    for _, pin := range invalid {
        if validKRAPIN(pin) {
            t.Errorf("%q should be invalid", pin)
        }
    }
}

func TestValidKenyanPhone(t *testing.T) {
    valid := []string{"+254712345678", "+254101234567"}
    for _, phone := range valid {
        if !validKenyanPhone(phone) {
            t.Errorf("%q should be valid", phone)
        }
    }
    invalid := []string{
        "",
        "0712345678",     // local format
        "+254812345678",  // invalid prefix digit
        "+25471234567",   // too short
        "+2547123456789", // too long
        "+255712345678",  // wrong country code
        "254712345678",
    }
    for _, phone := range invalid {
        if validKenyanPhone(phone) {
            t.Errorf("%q should be invalid", phone)
        }
    }
}
