// Package iban validates Spanish account numbers with the ISO 7064 MOD-97-10
// check used by IBAN.
package iban

import (
	"math/big"
	"strconv"
	"strings"
)

const (
	countryCode = "ES"
	length      = 24
)

var (
	modulus   = big.NewInt(97)
	remainder = big.NewInt(1)
)

// Normalize strips spaces and upper-cases s.
func Normalize(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, " ", ""))
}

// Valid reports whether s is a well-formed Spanish IBAN with a correct
// checksum.
func Valid(s string) bool {
	s = Normalize(s)

	if !strings.HasPrefix(s, countryCode) {
		return false
	}
	if len(s) != length {
		return false
	}
	for _, ch := range s[len(countryCode):] {
		if ch < '0' || ch > '9' {
			return false
		}
	}

	// country code and check digits go to the end, letters become 10..35
	rearranged := s[4:] + s[:4]
	var numeral strings.Builder
	for _, ch := range rearranged {
		switch {
		case ch >= '0' && ch <= '9':
			numeral.WriteRune(ch)
		case ch >= 'A' && ch <= 'Z':
			numeral.WriteString(strconv.Itoa(int(ch - 55)))
		default:
			return false
		}
	}

	// the numeral is ~26 digits long, beyond uint64
	n, ok := new(big.Int).SetString(numeral.String(), 10)
	if !ok {
		return false
	}
	return new(big.Int).Mod(n, modulus).Cmp(remainder) == 0
}

// ValidValue is Valid for loosely typed input such as decoded JSON.
// Anything but a string is not a valid IBAN.
func ValidValue(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return Valid(s)
}
