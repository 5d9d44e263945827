// Package currency converts vendor formatted price strings into integer cents.
package currency

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// DefaultRadix is the decimal separator used by the vendor unless configured otherwise.
const DefaultRadix = '.'

// ErrInvalidPrice is returned for price strings that cannot be represented in cents.
var ErrInvalidPrice = errors.New("invalid price")

var hundred = decimal.NewFromInt(100)

// ParsePrice converts text such as "$1,234.56" into cents (123456).
// Every character other than a digit or radix is discarded first, so currency symbols
// and thousands separators are ignored. A single fractional digit counts as tens of cents.
func ParsePrice(text string, radix rune) (int64, error) {
	if radix == 0 {
		radix = DefaultRadix
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == radix {
			return r
		}
		return -1
	}, text)

	whole, fraction, hasFraction := strings.Cut(cleaned, string(radix))
	if strings.ContainsRune(fraction, radix) {
		return 0, fmt.Errorf("%w: %q has more than one %q", ErrInvalidPrice, text, radix)
	}
	if whole == "" && fraction == "" {
		return 0, fmt.Errorf("%w: %q has no digits", ErrInvalidPrice, text)
	}
	if len(fraction) > 2 {
		return 0, fmt.Errorf("%w: %q has more than two fractional digits", ErrInvalidPrice, text)
	}

	literal := whole
	if literal == "" {
		literal = "0"
	}
	if hasFraction && fraction != "" {
		literal += "." + fraction
	}

	amount, err := decimal.NewFromString(literal)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidPrice, text, err)
	}

	cents := amount.Mul(hundred)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("%w: %q is not a whole number of cents", ErrInvalidPrice, text)
	}
	if !cents.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidPrice, text)
	}
	return cents.IntPart(), nil
}

// FormatCents renders cents as a dollar string, e.g. 123456 -> "$1234.56".
func FormatCents(cents int64) string {
	return "$" + decimal.New(cents, -2).StringFixed(2)
}
