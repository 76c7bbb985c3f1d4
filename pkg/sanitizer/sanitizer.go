// Package sanitizer normalizes user input before validation and storage.
package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	dotRegex        = regexp.MustCompile(`\.+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// NormalizeEmail trims and lower-cases an address and collapses repeated dots
// in the local part. Input without exactly one @ is only trimmed and lower-cased.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return email
	}
	local = strings.Trim(dotRegex.ReplaceAllString(local, "."), ".")
	return local + "@" + domain
}

// SingleLine drops control characters, collapses runs of whitespace to a
// single space and trims the result. Used for names and descriptions.
func SingleLine(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// UpperCode trims and upper-cases short codes such as currency codes.
func UpperCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
