package danplanner

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// NumberFormat knows which characters a locale uses for the decimal
// point and for digit grouping. Amounts are parsed into exact
// decimals, never binary floats, so the balance check cannot drift.
type NumberFormat struct {
	decimalSep rune
	groupSep   rune
}

// NewNumberFormat derives the separators for a BCP-47 locale tag by
// formatting a probe value and inspecting the result.
func NewNumberFormat(locale string) (NumberFormat, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return NumberFormat{}, fmt.Errorf("invalid currency locale %q: %w", locale, err)
	}

	// Large enough to force grouping, fractional to force a decimal
	// separator.
	probe := message.NewPrinter(tag).Sprint(number.Decimal(1234567.8))

	var seps []rune
	for _, r := range probe {
		if !unicode.IsDigit(r) {
			seps = append(seps, r)
		}
	}
	if len(seps) == 0 {
		return NumberFormat{}, fmt.Errorf("could not derive number separators for locale %q", locale)
	}

	format := NumberFormat{decimalSep: seps[len(seps)-1]}
	if len(seps) > 1 {
		format.groupSep = seps[0]
	}
	return format, nil
}

// Parse converts a raw numeric field into an exact decimal, honoring
// the locale's separators.
func (f NumberFormat) Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)

	var normalized strings.Builder
	for _, r := range s {
		switch r {
		case f.groupSep, '\u00a0', '\u202f':
			// grouping carries no value; exports pasted through
			// spreadsheets sometimes group with non-breaking spaces
		case f.decimalSep:
			normalized.WriteRune('.')
		default:
			normalized.WriteRune(r)
		}
	}

	d, err := decimal.NewFromString(normalized.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("cannot parse amount %q: %w", s, err)
	}
	return d, nil
}
