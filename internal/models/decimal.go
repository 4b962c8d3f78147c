package models

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Decimal is a fixed-point value with two decimal places, stored as a count
// of hundredths. Units and grades use it so that weighted-average math and
// truncation are exact.
type Decimal int64

// ParseDecimal parses values like "3", "3.0", "1.4", "1.75" or ".5".
// More than two fractional digits is an error.
func ParseDecimal(s string) (Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, eris.New("models: empty decimal")
	}

	neg := false
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		s = s[1:]
	}

	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if intPart == "" && (!hasDot || fracPart == "") {
		return 0, eris.Errorf("models: invalid decimal %q", s)
	}
	if len(fracPart) > 2 {
		return 0, eris.Errorf("models: decimal %q has more than two fractional digits", s)
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return 0, eris.Errorf("models: invalid decimal %q", s)
	}

	var whole int64
	if intPart != "" {
		n, err := strconv.ParseInt(intPart, 10, 64)
		if err != nil {
			return 0, eris.Wrapf(err, "models: invalid decimal %q", s)
		}
		whole = n
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	frac, _ := strconv.ParseInt(fracPart, 10, 64)

	d := Decimal(whole*100 + frac)
	if neg {
		d = -d
	}
	return d, nil
}

// MustDecimal is ParseDecimal for literals known to be valid.
func MustDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DecimalFromFloat rounds f to the nearest hundredth.
func DecimalFromFloat(f float64) Decimal {
	return Decimal(math.Round(f * 100))
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Float64 returns the value as a float, for display only.
func (d Decimal) Float64() float64 {
	return float64(d) / 100
}

// String formats the value with exactly two decimal places.
func (d Decimal) String() string {
	sign := ""
	v := int64(d)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON writes the value as a bare JSON number with two places.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (d *Decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	v, err := ParseDecimal(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
