package utils

import (
	"fmt"
	"regexp"

	"github.com/gobuffalo/nulls"
	"github.com/guregu/null"

	"github.com/GalaDe/finance-link-service/internal/domain"
)

var validStateAbbreviations = map[string]struct{}{
	"AL": {}, "AK": {}, "AZ": {}, "AR": {}, "CA": {}, "CO": {}, "CT": {}, "DE": {}, "FL": {}, "GA": {},
	"HI": {}, "ID": {}, "IL": {}, "IN": {}, "IA": {}, "KS": {}, "KY": {}, "LA": {}, "ME": {}, "MD": {},
	"MA": {}, "MI": {}, "MN": {}, "MS": {}, "MO": {}, "MT": {}, "NE": {}, "NV": {}, "NH": {}, "NJ": {},
	"NM": {}, "NY": {}, "NC": {}, "ND": {}, "OH": {}, "OK": {}, "OR": {}, "PA": {}, "RI": {}, "SC": {},
	"SD": {}, "TN": {}, "TX": {}, "UT": {}, "VT": {}, "VA": {}, "WA": {}, "WV": {}, "WI": {}, "WY": {},
}

var postalCodePattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// IsValidState reports whether s is one of the 50 US state codes. Matching is case-sensitive.
func IsValidState(s string) bool {
	_, ok := validStateAbbreviations[s]
	return ok
}

func IsValidPostalCode(s string) bool {
	return postalCodePattern.MatchString(s)
}

// ValidateAddress checks state before postal code so the first problem is reported.
func ValidateAddress(state, postalCode string) error {
	if !IsValidState(state) {
		return fmt.Errorf("%w: invalid state abbreviation: %s", domain.ErrValidationFailed, state)
	}
	if !IsValidPostalCode(postalCode) {
		return fmt.Errorf("%w: invalid postal code format: %s", domain.ErrValidationFailed, postalCode)
	}
	return nil
}

func NullsStringToNull(ns nulls.String) null.String {
	if ns.Valid {
		return null.StringFrom(ns.String)
	}
	return null.String{}
}

func NullToNullsString(s null.String) nulls.String {
	if s.Valid {
		return nulls.NewString(s.String)
	}
	return nulls.String{Valid: false}
}
