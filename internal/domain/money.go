package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultEpsilon is the absolute tolerance for monetary equality checks.
var DefaultEpsilon = decimal.RequireFromString("0.01")

// NumericText is a decimal value as the caller sent it. It decodes from
// either a JSON number or a JSON string.
type NumericText string

func (n *NumericText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumericText(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected a number: %w", err)
	}
	*n = NumericText(num.String())
	return nil
}

// thousandsGrouped matches a comma-grouped number such as 1,234,567.89.
var thousandsGrouped = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// Decimal parses the text. Commas are accepted only as thousands separators
// before the decimal point; "1,5" and "1.000,50" are errors.
func (n NumericText) Decimal() (decimal.Decimal, error) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty value")
	}
	if strings.Contains(s, ",") {
		if !thousandsGrouped.MatchString(s) {
			return decimal.Zero, fmt.Errorf("%q has misplaced thousands separators", s)
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	return decimal.NewFromString(s)
}

// WithinEpsilon reports whether |a-b| <= eps.
func WithinEpsilon(a, b, eps decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(eps)
}
