package export

import (
	"fmt"
	"strings"
)

var phonePrefixes = map[string]string{
	"india":     "+91",
	"australia": "+61",
}

const defaultPhonePrefix = "+1"

// PhonePrefix returns the dialing prefix expected for country.
func PhonePrefix(country string) string {
	if p, ok := phonePrefixes[strings.ToLower(strings.TrimSpace(country))]; ok {
		return p
	}
	return defaultPhonePrefix
}

// CheckPhone is an advisory check: it returns a warning when phone does not
// start with the country's prefix, and "" otherwise. Blank input is not
// checked.
func CheckPhone(country, phone string) string {
	country, phone = strings.TrimSpace(country), strings.TrimSpace(phone)
	if country == "" || phone == "" {
		return ""
	}
	prefix := PhonePrefix(country)
	if strings.HasPrefix(phone, prefix) {
		return ""
	}
	return fmt.Sprintf("phone number for %s should start with %s", country, prefix)
}
