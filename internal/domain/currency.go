package domain

import "regexp"

// Currency is immutable reference data; rows are seeded by migrations.
type Currency struct {
	ID                 int64
	Name               string
	Code               string
	Symbol             string
	Precision          int
	ThousandSeparator  string
	DecimalSeparator   string
	SwapCurrencySymbol bool
}

var codeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidateCode reports whether s looks like an ISO 4217 alphabetic code.
func ValidateCode(s string) bool {
	return codeRe.MatchString(s)
}
